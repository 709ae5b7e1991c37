package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"earnings-watch/internal/config"
	"earnings-watch/internal/earnings"
	"earnings-watch/internal/service"
)

func sampleEstimate() service.Estimate {
	obs := []earnings.SourcedDateTime{
		{Source: "Zacks", DateTime: earnings.DateTime{Date: earnings.NewDate(2024, 3, 7), Time: earnings.AfterMarket}},
		{Source: "FinViz", DateTime: earnings.DateTime{Date: earnings.NewDate(2024, 3, 7), Time: earnings.AfterMarket}},
		{Source: "Yahoo", DateTime: earnings.DateTime{Date: earnings.NewDate(2024, 3, 12), Time: earnings.Unknown}},
	}
	today := earnings.NewDate(2024, 3, 4)
	guess, err := earnings.BestGuess(obs, today)
	if err != nil {
		panic(err)
	}
	return service.Estimate{
		Symbol:       "AAPL",
		Today:        today,
		Observations: obs,
		Guess:        guess,
		Tally:        earnings.Tally(obs, today),
	}
}

func testApp(cfg *config.Config) (*App, *bytes.Buffer) {
	out := &bytes.Buffer{}
	a := NewApp(cfg, zerolog.Nop())
	a.Out = out
	return a, out
}

func TestRenderEstimate(t *testing.T) {
	var buf bytes.Buffer
	if err := renderEstimate(&buf, sampleEstimate()); err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"AAPL: last session before earnings 2024-03-07 (66.67% agreement, 3 sources, today 2024-03-04)",
		"announce timing AMC",
		"2024-03-12?",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("输出缺少 %q:\n%s", want, out)
		}
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Yahoo") && !strings.HasPrefix(line, "far") {
			t.Fatalf("Yahoo 应在 far 分组: %q", line)
		}
	}
}

func TestWriteEstimateCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "aapl.csv")
	if err := writeEstimateCSV(path, sampleEstimate()); err != nil {
		t.Fatalf("写 CSV 失败: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("打开 CSV 失败: %v", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("解析 CSV 失败: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("期望 1 行表头 + 3 行数据, 实际 %d", len(rows))
	}
	yahoo := rows[3]
	if yahoo[2] != "Yahoo" || yahoo[6] != "true" || yahoo[7] != "far" || yahoo[8] != "2024-03-07" || yahoo[9] != "66.67" {
		t.Fatalf("Yahoo 行内容错误: %v", yahoo)
	}
	if rows[1][7] != "agree" {
		t.Fatalf("Zacks 应在 agree 分组: %v", rows[1])
	}
}

func TestWriteTallyPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aapl.png")
	if err := writeTallyPNG(path, sampleEstimate()); err != nil {
		t.Fatalf("写 PNG 失败: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取 PNG 失败: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatal("输出不是 PNG 文件")
	}

	if err := writeTallyPNG(path, service.Estimate{Symbol: "X"}); err == nil {
		t.Fatal("没有交易日时应报错")
	}
}

func TestExportRequiresOutput(t *testing.T) {
	a, _ := testApp(&config.Config{})
	if err := a.Export(context.Background(), ExportOptions{Symbol: "AAPL"}); err == nil {
		t.Fatal("缺少 --csv/--png 时应报错")
	}
}

func TestGuessRejectsUnknownSource(t *testing.T) {
	cfg := &config.Config{}
	cfg.Sources.Enabled = []string{"Reuters"}
	a, _ := testApp(cfg)
	if err := a.Guess(context.Background(), GuessOptions{Symbols: []string{"AAPL"}}); err == nil {
		t.Fatal("未知数据源应报错")
	}
	if err := a.Guess(context.Background(), GuessOptions{}); err == nil {
		t.Fatal("缺少 symbol 时应报错")
	}
}

func TestWatchlistRequiresDatabase(t *testing.T) {
	a, _ := testApp(&config.Config{})
	if err := a.WatchlistList(context.Background()); err != errNoDatabase {
		t.Fatalf("期望 errNoDatabase, 实际 %v", err)
	}
}

func TestSimulateAlert(t *testing.T) {
	var texts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("解析请求体失败: %v", err)
		}
		texts = append(texts, payload["text"])
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
	}))
	defer srv.Close()

	cfg := &config.Config{}
	cfg.Scheduler.Interval = time.Hour
	cfg.Alerting.Enabled = true
	cfg.Alerting.Telegram = config.TelegramConfig{Enabled: true, BotToken: "t", ChatID: "c", APIBase: srv.URL}
	a, _ := testApp(cfg)

	err := a.SimulateAlert(context.Background(), SimulateOptions{
		Symbol:   "msft",
		Previous: earnings.NewDate(2024, 4, 24),
		Next:     earnings.NewDate(2024, 4, 25),
	})
	if err != nil {
		t.Fatalf("模拟告警失败: %v", err)
	}
	if len(texts) != 1 || !strings.Contains(texts[0], "2024-04-24 -> 2024-04-25") {
		t.Fatalf("应发送一次交易日变化告警: %v", texts)
	}

	cfg.Alerting.Enabled = false
	if err := a.SimulateAlert(context.Background(), SimulateOptions{Symbol: "MSFT"}); err == nil {
		t.Fatal("alerting 未启用时应报错")
	}
}
