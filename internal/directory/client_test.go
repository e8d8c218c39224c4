package directory

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/blazen1013/setting/internal/domain/model"
	"github.com/blazen1013/setting/internal/domain/status"
)

// testLogger создаёт logger для тестов.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// setupMockAPI создаёт mock HTTP-сервер Directory API.
func setupMockAPI(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

// newTestClient создаёт клиент к mock-серверу.
func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	client, err := New(url+"/", "", 2*time.Second, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

// writeJSON отправляет JSON-ответ.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_ListEmployees(t *testing.T) {
	server := setupMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/employees" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("список сотрудников не должен передавать Authorization")
		}
		_, _ = io.WriteString(w, `[
			{"emp_id":1,"emp_no":"E1","name":"Kim","email":"kim@x.com","mobile":"010","status":{"status":"WORKING","updated_at":"2026-01-01T00:00:00Z"}},
			{"emp_id":2,"name":"Lee","email":"lee@x.com","mobile":"011","status":null}
		]`)
	})

	client := newTestClient(t, server.URL)
	employees, err := client.ListEmployees(context.Background())
	if err != nil {
		t.Fatalf("ListEmployees: %v", err)
	}
	if len(employees) != 2 {
		t.Fatalf("получено %d сотрудников, ожидается 2", len(employees))
	}
	if employees[0].StatusCode() != "WORKING" || employees[1].Status != nil {
		t.Errorf("неожиданные статусы: %+v", employees)
	}
}

func TestClient_ListEmployees_Empty(t *testing.T) {
	for _, body := range []string{`[]`, `null`} {
		server := setupMockAPI(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, body)
		})

		employees, err := newTestClient(t, server.URL).ListEmployees(context.Background())
		if err != nil {
			t.Fatalf("ListEmployees(%s): %v", body, err)
		}
		if employees == nil || len(employees) != 0 {
			t.Errorf("ListEmployees(%s) = %v, ожидается пустой непустой-nil срез", body, employees)
		}
	}
}

func TestClient_FetchSelf_BasicAuth(t *testing.T) {
	server := setupMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/employees/me" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "kim" || pass != "secret-pass" {
			w.Header().Set("WWW-Authenticate", "Basic")
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "Invalid authentication credentials"})
			return
		}
		writeJSON(w, http.StatusOK, model.Employee{ID: 42, Name: "Kim", Email: "kim@x.com", Mobile: "010"})
	})
	client := newTestClient(t, server.URL)

	emp, err := client.FetchEmployee(context.Background(), model.ScopeSelf(),
		&model.Credentials{LoginID: "kim", Password: "secret-pass"})
	if err != nil {
		t.Fatalf("FetchEmployee: %v", err)
	}
	if emp.ID != 42 {
		t.Errorf("ID = %d, ожидается 42", emp.ID)
	}

	_, err = client.FetchEmployee(context.Background(), model.ScopeSelf(),
		&model.Credentials{LoginID: "kim", Password: "wrong"})
	if !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("неверный пароль: ожидалась ErrUnauthorized, получено %v", err)
	}
	if model.ErrorDetail(err) != "Invalid authentication credentials" {
		t.Errorf("Detail = %q", model.ErrorDetail(err))
	}
}

func TestClient_FetchSelf_NoCredentials(t *testing.T) {
	var calls int32
	server := setupMockAPI(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusOK)
	})
	client := newTestClient(t, server.URL)

	_, err := client.FetchEmployee(context.Background(), model.ScopeSelf(), nil)
	if !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("ожидалась ErrUnauthorized, получено %v", err)
	}
	_, err = client.UpdateEmployee(context.Background(), model.ScopeSelf(), model.UpdatePayload{}, &model.Credentials{})
	if !errors.Is(err, model.ErrUnauthorized) {
		t.Errorf("ожидалась ErrUnauthorized, получено %v", err)
	}
	if calls != 0 {
		t.Errorf("выполнено %d запросов, ожидается 0", calls)
	}
}

func TestClient_FetchByID(t *testing.T) {
	server := setupMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/employees/7" {
			writeJSON(w, http.StatusNotFound, map[string]string{"detail": "Employee not found"})
			return
		}
		writeJSON(w, http.StatusOK, model.Employee{ID: 7, Name: "Park"})
	})
	client := newTestClient(t, server.URL)

	emp, err := client.FetchEmployee(context.Background(), model.ScopeID(7), nil)
	if err != nil || emp.ID != 7 {
		t.Fatalf("FetchEmployee(7) = %+v, %v", emp, err)
	}

	_, err = client.FetchEmployee(context.Background(), model.ScopeID(8), nil)
	if !errors.Is(err, model.ErrValidation) || model.ErrorDetail(err) != "Employee not found" {
		t.Errorf("FetchEmployee(8): ожидалась ErrValidation с detail, получено %v", err)
	}
}

func TestClient_UpdateEmployee(t *testing.T) {
	server := setupMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/employees/42" {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("обновление по id не должно передавать Authorization")
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("декодирование тела: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		want := map[string]any{
			"name": "Kim", "email": "kim@x.com", "mobile": "010-1111-2222",
			"status": "AWAY", "password": nil,
		}
		if !reflect.DeepEqual(body, want) {
			t.Errorf("тело запроса = %v, ожидается %v", body, want)
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"emp_id": 42, "name": "Kim", "email": "kim@x.com", "mobile": "010-1111-2222",
			"status": map[string]any{"status": "AWAY"},
		})
	})

	away := "AWAY"
	emp, err := newTestClient(t, server.URL).UpdateEmployee(context.Background(), model.ScopeID(42),
		model.UpdatePayload{Name: "Kim", Email: "kim@x.com", Mobile: "010-1111-2222", Status: &away}, nil)
	if err != nil {
		t.Fatalf("UpdateEmployee: %v", err)
	}
	if emp.ID != 42 || emp.StatusCode() != "AWAY" {
		t.Errorf("неожиданный ответ: %+v", emp)
	}
}

func TestClient_UpdateEmployee_Errors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   error
		wantDetail string
	}{
		{"401", http.StatusUnauthorized, `{"detail":"Invalid authentication credentials"}`,
			model.ErrUnauthorized, "Invalid authentication credentials"},
		{"403", http.StatusForbidden, `{"detail":"No employee is associated with this account"}`,
			model.ErrForbidden, "No employee is associated with this account"},
		{"404", http.StatusNotFound, `{"detail":"Employee 42 not found"}`,
			model.ErrValidation, "Employee 42 not found"},
		{"422 список", http.StatusUnprocessableEntity,
			`{"detail":[{"loc":["body","email"],"msg":"value is not a valid email address","type":"value_error"},{"loc":["body"],"msg":"broken"}]}`,
			model.ErrValidation, "email: value is not a valid email address; broken"},
		{"422 без detail", http.StatusUnprocessableEntity, `not json`, model.ErrValidation, ""},
		{"500", http.StatusInternalServerError, `{"detail":"db down"}`, model.ErrTransport, ""},
		{"502", http.StatusBadGateway, `<html>bad gateway</html>`, model.ErrTransport, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := setupMockAPI(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := newTestClient(t, server.URL).UpdateEmployee(context.Background(), model.ScopeID(42),
				model.UpdatePayload{Name: "Kim"}, nil)
			if !errors.Is(err, tt.wantKind) {
				t.Fatalf("ожидалась %v, получено %v", tt.wantKind, err)
			}
			if got := model.ErrorDetail(err); got != tt.wantDetail {
				t.Errorf("Detail = %q, ожидается %q", got, tt.wantDetail)
			}
			var de *Error
			if !errors.As(err, &de) || de.StatusCode != tt.status || de.Op != opUpdateEmployee {
				t.Errorf("ожидалась *Error со статусом %d: %#v", tt.status, de)
			}
		})
	}
}

func TestClient_Timeout(t *testing.T) {
	server := setupMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
		w.WriteHeader(http.StatusOK)
	})

	client, err := New(server.URL, "", 50*time.Millisecond, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	_, err = client.ListEmployees(context.Background())
	if !errors.Is(err, model.ErrTransport) {
		t.Errorf("таймаут: ожидалась ErrTransport, получено %v", err)
	}
}

func TestClient_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := newTestClient(t, url).ListStatusOptions(context.Background())
	if !errors.Is(err, model.ErrTransport) {
		t.Errorf("недоступный бэкенд: ожидалась ErrTransport, получено %v", err)
	}
}

func TestClient_MalformedBody(t *testing.T) {
	server := setupMockAPI(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"emp_id":`)
	})

	_, err := newTestClient(t, server.URL).FetchEmployee(context.Background(), model.ScopeID(1), nil)
	if !errors.Is(err, model.ErrTransport) {
		t.Errorf("ожидалась ErrTransport, получено %v", err)
	}
}

func TestClient_ListStatusOptions(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []status.Code
	}{
		{"строки", `{"options":["WORKING","AWAY"]}`, []status.Code{status.Working, status.Away}},
		{"пары", `{"options":[{"value":"WORKING","label":"W"}]}`, []status.Code{status.Working}},
		{"голый массив", `["OFF_WORK"]`, []status.Code{status.OffWork}},
		{"пустой", `{"options":[]}`, []status.Code{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := setupMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/employee-status-options" {
					w.WriteHeader(http.StatusNotFound)
					return
				}
				_, _ = io.WriteString(w, tt.body)
			})

			got, err := newTestClient(t, server.URL).ListStatusOptions(context.Background())
			if err != nil {
				t.Fatalf("ListStatusOptions: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("получено %v, ожидается %v", got, tt.want)
			}
		})
	}
}

func TestClient_ListStatusOptions_Malformed(t *testing.T) {
	for _, body := range []string{`{"choices":[]}`, `{"options":[1,2]}`, `"WORKING"`} {
		server := setupMockAPI(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, body)
		})

		_, err := newTestClient(t, server.URL).ListStatusOptions(context.Background())
		if !errors.Is(err, model.ErrTransport) {
			t.Errorf("ListStatusOptions(%s): ожидалась ErrTransport, получено %v", body, err)
		}
	}
}

func TestClient_Health(t *testing.T) {
	server := setupMockAPI(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if err := newTestClient(t, server.URL).Health(context.Background()); err != nil {
		t.Errorf("Health: %v", err)
	}
}

func TestNew_InvalidCACert(t *testing.T) {
	path := t.TempDir() + "/ca.pem"
	if err := os.WriteFile(path, []byte("not a certificate"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := New("https://localhost", path, time.Second, testLogger()); err == nil {
		t.Error("ожидалась ошибка для некорректного CA-сертификата")
	}
	if _, err := New("https://localhost", path+".missing", time.Second, testLogger()); err == nil {
		t.Error("ожидалась ошибка для отсутствующего CA-сертификата")
	}
}

func TestError_Message(t *testing.T) {
	err := errorFromResponse(opUpdateEmployee, http.StatusForbidden, []byte(`{"detail":"nope"}`))
	msg := err.Error()
	if !strings.Contains(msg, "update_employee") || !strings.Contains(msg, "403") || !strings.Contains(msg, "nope") {
		t.Errorf("Error() = %q", msg)
	}
}
