package service

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testConfig(serviceID, apiURL string) DephealthConfig {
	return DephealthConfig{
		ServiceID:     serviceID,
		Group:         "manuals",
		APIURL:        apiURL,
		HealthPath:    "/api/health",
		CheckInterval: 1 * time.Second,
	}
}

func TestNewDephealthService_ValidURL(t *testing.T) {
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer mockServer.Close()

	// Используем изолированный Prometheus registry для тестов
	ds, err := NewDephealthServiceWithRegisterer(testConfig("manual-console-01", mockServer.URL), testLogger(), prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("Ошибка создания DephealthService: %v", err)
	}
	if ds == nil {
		t.Fatal("DephealthService nil")
	}
}

func TestDephealthService_HealthyAPI(t *testing.T) {
	var gotPath atomic.Value
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer mockServer.Close()

	ds, err := NewDephealthServiceWithRegisterer(testConfig("manual-console-02", mockServer.URL), testLogger(), prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("Ошибка создания DephealthService: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start не должен блокировать
	if err := ds.Start(ctx); err != nil {
		t.Fatalf("Ошибка запуска: %v", err)
	}
	defer ds.Stop()

	// Даём время на первую проверку (интервал 1s + запас)
	time.Sleep(3 * time.Second)

	healthy, found := lookupAPI(ds.Health())
	if !found {
		t.Fatalf("Нет записи для %s в Health(), keys=%v", APIDependencyName, healthKeys(ds.Health()))
	}
	if !healthy {
		t.Errorf("%s health = false, ожидалось true", APIDependencyName)
	}
	if path, _ := gotPath.Load().(string); path != "/api/health" {
		t.Errorf("путь проверки = %q, ожидалось /api/health", path)
	}
}

func TestDephealthService_UnhealthyAPI(t *testing.T) {
	// Сервер, который возвращает 500
	mockServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer mockServer.Close()

	ds, err := NewDephealthServiceWithRegisterer(testConfig("manual-console-03", mockServer.URL), testLogger(), prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("Ошибка создания DephealthService: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := ds.Start(ctx); err != nil {
		t.Fatalf("Ошибка запуска: %v", err)
	}
	defer ds.Stop()

	time.Sleep(3 * time.Second)

	healthy, found := lookupAPI(ds.Health())
	if !found {
		t.Fatalf("Нет записи для %s в Health(), keys=%v", APIDependencyName, healthKeys(ds.Health()))
	}
	if healthy {
		t.Errorf("%s health = true, ожидалось false (сервер 500)", APIDependencyName)
	}
}

// lookupAPI ищет запись REST API в карте Health().
func lookupAPI(health map[string]bool) (healthy bool, found bool) {
	for key, val := range health {
		if strings.HasPrefix(key, APIDependencyName+":") {
			return val, true
		}
	}
	return false, false
}

// healthKeys возвращает ключи карты health для вывода в сообщениях об ошибках.
func healthKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
