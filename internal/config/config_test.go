package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("无配置文件时应使用默认值: %v", err)
	}
	if cfg.Scheduler.Interval != 6*time.Hour {
		t.Fatalf("默认间隔应为 6h, 实际 %s", cfg.Scheduler.Interval)
	}
	if len(cfg.Sources.Enabled) != 4 {
		t.Fatalf("默认应启用 4 个来源, 实际 %v", cfg.Sources.Enabled)
	}
	if cfg.App.Timezone != "America/New_York" {
		t.Fatalf("默认时区错误: %s", cfg.App.Timezone)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
app:
  timezone: UTC
sources:
  enabled: [zacks, nasdaq]
  request_timeout: 3s
watch:
  symbols: [aapl, " msft ", ""]
scheduler:
  interval: 30m
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写入配置失败: %v", err)
	}
	t.Setenv("EARNINGSWATCH_SERVER_ADDR", ":9999")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if cfg.Sources.RequestTimeout != 3*time.Second || len(cfg.Sources.Enabled) != 2 {
		t.Fatalf("sources 配置错误: %+v", cfg.Sources)
	}
	if cfg.Scheduler.Interval != 30*time.Minute {
		t.Fatalf("interval 错误: %s", cfg.Scheduler.Interval)
	}
	if cfg.Server.Addr != ":9999" {
		t.Fatalf("环境变量应覆盖 server.addr, 实际 %s", cfg.Server.Addr)
	}
	symbols := cfg.WatchSymbols()
	if len(symbols) != 2 || symbols[0] != "AAPL" || symbols[1] != "MSFT" {
		t.Fatalf("watch symbols 规范化错误: %v", symbols)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			App:       AppConfig{Timezone: "UTC"},
			Scheduler: SchedulerConfig{Interval: time.Hour},
			Sources:   SourcesConfig{Enabled: []string{"Zacks"}},
		}
	}

	cfg := base()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("合法配置不应报错: %v", err)
	}

	cfg = base()
	cfg.Scheduler.Interval = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("interval 为 0 应报错")
	}

	cfg = base()
	cfg.Sources.Enabled = nil
	if err := cfg.Validate(); err == nil {
		t.Fatal("未启用来源应报错")
	}

	cfg = base()
	cfg.App.Timezone = "Mars/Olympus"
	if err := cfg.Validate(); err == nil {
		t.Fatal("非法时区应报错")
	}

	cfg = base()
	cfg.Alerting.Telegram.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("缺少 bot_token 应报错")
	}
}
