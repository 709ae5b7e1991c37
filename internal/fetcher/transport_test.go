package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPTransportGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("User-Agent 不正确: %q", r.Header.Get("User-Agent"))
		}
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(TransportOptions{Timeout: time.Second, UserAgent: "test-agent"}, noopLogger())

	status, body, err := tr.Get(context.Background(), srv.URL+"/quote")
	if err != nil {
		t.Fatalf("请求不应报错: %v", err)
	}
	if status != http.StatusOK || string(body) != "<html>ok</html>" {
		t.Fatalf("响应错误: %d %q", status, body)
	}

	status, _, err = tr.Get(context.Background(), srv.URL+"/missing")
	if err != nil {
		t.Fatalf("非 2xx 状态码由调用方判断, 不应报错: %v", err)
	}
	if status != http.StatusNotFound {
		t.Fatalf("期望 404, 实际 %d", status)
	}
}

func TestHTTPTransportConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	tr := NewHTTPTransport(TransportOptions{}, noopLogger())
	if _, _, err := tr.Get(context.Background(), url); err == nil {
		t.Fatal("连接失败应报错")
	}
}

func TestHTTPTransportRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		size := 16
		if r.URL.Path == "/big" {
			size = 17
		}
		_, _ = w.Write([]byte(strings.Repeat("x", size)))
	}))
	defer srv.Close()

	tr := NewHTTPTransport(TransportOptions{Timeout: time.Second, MaxBodyBytes: 16}, noopLogger())

	_, body, err := tr.Get(context.Background(), srv.URL+"/exact")
	if err != nil {
		t.Fatalf("正好等于上限不应报错: %v", err)
	}
	if len(body) != 16 {
		t.Fatalf("响应体应完整返回, 实际 %d 字节", len(body))
	}

	_, body, err = tr.Get(context.Background(), srv.URL+"/big")
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("超过上限应返回 ErrBodyTooLarge, 实际 %v", err)
	}
	if body != nil {
		t.Fatalf("超限时不应返回截断的响应体: %q", body)
	}
}

func TestGatherOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bloomberg/AAPL":
			_, _ = w.Write([]byte(`<span class="nextAnnouncementDate">5/2/2024</span>`))
		case "/zacks/AAPL":
			_, _ = w.Write([]byte(zacksPage(`<sup>*AMC</sup> 5/2/24`)))
		default:
			w.WriteHeader(http.StatusForbidden)
		}
	}))
	defer srv.Close()

	sources := []Source{
		{Name: SourceBloomberg, URLTemplate: srv.URL + "/bloomberg/{}", Extractor: ExtractorFunc(ExtractBloomberg)},
		{Name: SourceZacks, URLTemplate: srv.URL + "/zacks/{}", Extractor: ExtractorFunc(ExtractZacks)},
		{Name: SourceYahoo, URLTemplate: srv.URL + "/yahoo/{}", Extractor: ExtractorFunc(ExtractYahoo)},
	}
	g := NewGatherer(sources, NewHTTPTransport(TransportOptions{Timeout: time.Second}, noopLogger()), nil, noopLogger())

	got := g.Gather(context.Background(), "AAPL")
	if len(got) != 2 {
		t.Fatalf("期望 2 个观测 (Yahoo 返回 403), 实际 %+v", got)
	}
}
