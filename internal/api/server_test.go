package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"earnings-watch/internal/earnings"
	"earnings-watch/internal/service"
)

type fakeEstimator struct {
	est service.Estimate
	err error
}

func (f fakeEstimator) Estimate(_ context.Context, symbol string) (service.Estimate, error) {
	if _, err := service.NormalizeSymbol(symbol); err != nil {
		return service.Estimate{}, err
	}
	return f.est, f.err
}

func newTestServer(est service.EstimateProvider) *Server {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "# HELP fake_metric test")
	})
	return NewServer(Options{Addr: ":0"}, est, metrics, zerolog.Nop())
}

func serve(srv *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	w := serve(newTestServer(fakeEstimator{}), "/health")
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200, 实际 %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("status 应为 ok, 实际 %q", body["status"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	w := serve(newTestServer(fakeEstimator{}), "/metrics")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "fake_metric") {
		t.Fatalf("metrics 输出异常: %d %s", w.Code, w.Body.String())
	}
}

func TestEstimateEndpoint(t *testing.T) {
	session := earnings.NewDate(2024, 3, 7)
	est := service.Estimate{
		Symbol: "AAPL",
		Today:  earnings.NewDate(2024, 3, 4),
		Guess: earnings.Guess{
			LastSession:        session,
			Concurrences:       []earnings.SourcedDateTime{{Source: "Zacks", DateTime: earnings.DateTime{Date: session, Time: earnings.AfterMarket}}},
			CloseDisagreements: []earnings.SourcedDateTime{},
			FarDisagreements:   []earnings.SourcedDateTime{},
		},
	}
	w := serve(newTestServer(fakeEstimator{est: est}), "/api/v1/earnings/aapl")
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200, 实际 %d: %s", w.Code, w.Body.String())
	}

	var body struct {
		Symbol string `json:"symbol"`
		Guess  struct {
			LastSession  string `json:"last_session"`
			Concurrences []struct {
				Source   string `json:"source"`
				DateTime struct {
					Date string `json:"date"`
					Time string `json:"time"`
				} `json:"datetime"`
			} `json:"concurrences"`
		} `json:"guess"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if body.Symbol != "AAPL" || body.Guess.LastSession != "2024-03-07" {
		t.Fatalf("响应内容错误: %+v", body)
	}
	if len(body.Guess.Concurrences) != 1 || body.Guess.Concurrences[0].DateTime.Time != "AMC" {
		t.Fatalf("concurrences 序列化错误: %+v", body.Guess.Concurrences)
	}
}

func TestEstimateEndpointErrors(t *testing.T) {
	cases := []struct {
		name   string
		path   string
		err    error
		status int
	}{
		{"bad symbol", "/api/v1/earnings/AA%20PL", nil, http.StatusBadRequest},
		{"insufficient", "/api/v1/earnings/AAPL", service.ErrInsufficientData, http.StatusUnprocessableEntity},
		{"no candidate", "/api/v1/earnings/AAPL", &earnings.NoCandidateError{}, http.StatusUnprocessableEntity},
		{"internal", "/api/v1/earnings/AAPL", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := serve(newTestServer(fakeEstimator{err: tc.err}), tc.path)
			if w.Code != tc.status {
				t.Fatalf("期望 %d, 实际 %d: %s", tc.status, w.Code, w.Body.String())
			}
			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil || body["error"] == "" {
				t.Fatalf("错误响应应包含 error 字段: %v %v", body, err)
			}
		})
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	w := serve(newTestServer(fakeEstimator{}), "/nonexistent")
	if w.Code != http.StatusNotFound {
		t.Fatalf("期望 404, 实际 %d", w.Code)
	}
}
