package integrationtest

import (
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/fakhrymubarak/weather-forward/internal/handler"
	"github.com/fakhrymubarak/weather-forward/internal/model"
	"github.com/fakhrymubarak/weather-forward/internal/repository"
	"github.com/fakhrymubarak/weather-forward/internal/service"
)

// MockResponse is what the fake AMap server answers for one (city, extensions) pair.
type MockResponse struct {
	Code int
	Body string
}

// mockAmap is a fake AMap weatherInfo endpoint that counts the calls it receives.
type mockAmap struct {
	mu        sync.Mutex
	responses map[string]MockResponse
	calls     map[string]int
	lastQuery map[string]string
}

func mockKey(city string, mode model.Mode) string {
	return city + "/" + mode.Extensions()
}

func newMockAmap() *mockAmap {
	return &mockAmap{
		responses: make(map[string]MockResponse),
		calls:     make(map[string]int),
		lastQuery: make(map[string]string),
	}
}

func (m *mockAmap) set(city string, mode model.Mode, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[mockKey(city, mode)] = resp
}

func (m *mockAmap) callCount(city string, mode model.Mode) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[mockKey(city, mode)]
}

func (m *mockAmap) query(city string, mode model.Mode) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastQuery[mockKey(city, mode)]
}

func (m *mockAmap) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = make(map[string]int)
	m.lastQuery = make(map[string]string)
}

func (m *mockAmap) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key := q.Get("city") + "/" + q.Get("extensions")

	m.mu.Lock()
	m.calls[key]++
	m.lastQuery[key] = r.URL.RawQuery
	resp, ok := m.responses[key]
	m.mu.Unlock()

	if !ok {
		resp = MockResponse{Code: http.StatusOK, Body: `{"status":"0","info":"INVALID_PARAMS","infocode":"20000"}`}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Code)
	_, _ = w.Write([]byte(resp.Body))
}

// setupIntegrationTestServer wires the real repository, service, handler and router.
// The repository reads its upstream URL and key from config, so callers point
// config at the mock AMap server first.
func setupIntegrationTestServer() (*httptest.Server, *service.WeatherService) {
	weatherRepo := repository.NewWeatherRepository(&http.Client{})
	weatherService := service.NewWeatherService(weatherRepo, nil)
	router := handler.NewRouter(handler.NewWeatherHandler(weatherService), handler.RouteOptions{
		Forecast:   true,
		CacheAdmin: true,
	})
	return httptest.NewServer(router), weatherService
}
