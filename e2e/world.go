// Package e2e runs the feature files in features/ against an in-process
// leadbook server backed by in-memory stores.
package e2e

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"time"

	"github.com/cucumber/godog"

	"leadbook/internal/auth/adapters"
	authservice "leadbook/internal/auth/service"
	userstore "leadbook/internal/auth/store/user"
	buyermodels "leadbook/internal/buyer/models"
	buyerservice "leadbook/internal/buyer/service"
	buyerstore "leadbook/internal/buyer/store"
	httpapi "leadbook/internal/http"
	jwttoken "leadbook/internal/jwt_token"
	"leadbook/internal/platform/config"
	"leadbook/internal/ratelimit/store/bucket"
)

// World is the per-scenario state shared by step definitions.
type World struct {
	server  *httptest.Server
	token   string
	status  int
	body    []byte
	buyers  map[string]*buyermodels.Buyer
	created map[string]time.Time
}

// Start launches a fresh server with empty stores.
func (w *World) Start() error {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := userstore.New()
	buyers, err := buyerservice.New(buyerstore.NewInMemory(),
		buyerservice.WithLogger(log),
		buyerservice.WithOwnerDirectory(adapters.NewOwnerDirectory(users)),
	)
	if err != nil {
		return err
	}
	tokens := jwttoken.NewJWTService("e2e-key", "leadbook")
	auth, err := authservice.New(users, tokens, time.Hour, authservice.WithLogger(log))
	if err != nil {
		return err
	}

	cfg := config.FromEnv()
	cfg.RateLimit = config.RateLimit{CreateLimit: 10, UpdateLimit: 6, Window: 15 * time.Minute}

	router := httpapi.NewRouter(cfg, httpapi.Dependencies{
		Logger:  log,
		Buyers:  buyers,
		Auth:    auth,
		Tokens:  jwttoken.NewSessionValidator(tokens),
		Limiter: bucket.NewInMemoryBucketStore(),
	})
	w.server = httptest.NewServer(router)
	w.token = ""
	w.buyers = map[string]*buyermodels.Buyer{}
	w.created = map[string]time.Time{}
	return nil
}

func (w *World) Close() {
	if w.server != nil {
		w.server.Close()
	}
}

// RegisterSteps binds every step phrase used by the feature files.
func (w *World) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Step(`^I am signed in as "([^"]*)"$`, w.signedInAs)
	sc.Step(`^I create a buyer named "([^"]*)" in "([^"]*)"$`, w.createNamed)
	sc.Step(`^I create a buyer with:$`, w.createWith)
	sc.Step(`^I create (\d+) buyers$`, w.createMany)
	sc.Step(`^I update the status of "([^"]*)" to "([^"]*)"$`, w.updateStatus)
	sc.Step(`^I update the status of "([^"]*)" to "([^"]*)" with its original version$`, w.updateStatusStale)
	sc.Step(`^I view "([^"]*)"$`, w.view)
	sc.Step(`^I delete "([^"]*)"$`, w.delete)
	sc.Step(`^I import the CSV:$`, w.importCSV)
	sc.Step(`^I export buyers in "([^"]*)"$`, w.exportCity)

	sc.Step(`^the response status should be (\d+)$`, w.statusShouldBe)
	sc.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, w.fieldShouldBe)
	sc.Step(`^the field error for "([^"]*)" should be "([^"]*)"$`, w.fieldErrorShouldBe)
	sc.Step(`^the history of "([^"]*)" should have (\d+) entries$`, w.historyShouldHave)
	sc.Step(`^the import should report (\d+) imported with errors:$`, w.importShouldReport)
	sc.Step(`^the export should contain (\d+) buyers?$`, w.exportShouldContain)
}

func (w *World) request(ctx context.Context, method, path, contentType string, body io.Reader) error {
	req, err := http.NewRequestWithContext(ctx, method, w.server.URL+path, body)
	if err != nil {
		return err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if w.token != "" {
		req.Header.Set("Authorization", "Bearer "+w.token)
	}
	resp, err := w.server.Client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	w.status = resp.StatusCode
	w.body, err = io.ReadAll(resp.Body)
	return err
}

func (w *World) sendJSON(ctx context.Context, method, path string, v any) error {
	var body io.Reader
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	return w.request(ctx, method, path, "application/json", body)
}

func (w *World) buyer(name string) (*buyermodels.Buyer, error) {
	b, ok := w.buyers[name]
	if !ok {
		return nil, fmt.Errorf("no buyer named %q was created in this scenario", name)
	}
	return b, nil
}

// remember stores the buyer in the last response under its name.
func (w *World) remember() error {
	var b buyermodels.Buyer
	if err := json.Unmarshal(w.body, &b); err != nil {
		return fmt.Errorf("decode buyer: %w: %s", err, w.body)
	}
	if _, seen := w.created[b.FullName]; !seen {
		w.created[b.FullName] = b.UpdatedAt
	}
	w.buyers[b.FullName] = &b
	return nil
}

func (w *World) signedInAs(ctx context.Context, email string) error {
	if err := w.sendJSON(ctx, http.MethodPost, "/api/auth/signin", map[string]string{"email": email}); err != nil {
		return err
	}
	if w.status != http.StatusOK {
		return fmt.Errorf("sign in failed with %d: %s", w.status, w.body)
	}
	var sess struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.body, &sess); err != nil {
		return err
	}
	w.token = sess.Token
	return nil
}

func basePayload(name, city string) map[string]any {
	return map[string]any{
		"fullName":     name,
		"phone":        "9876543210",
		"city":         city,
		"propertyType": "PLOT",
		"purpose":      "BUY",
		"timeline":     "EXPLORING",
		"source":       "WEBSITE",
	}
}

func (w *World) create(ctx context.Context, payload map[string]any) error {
	if err := w.sendJSON(ctx, http.MethodPost, "/api/buyers", payload); err != nil {
		return err
	}
	if w.status == http.StatusCreated {
		return w.remember()
	}
	return nil
}

func (w *World) createNamed(ctx context.Context, name, city string) error {
	return w.create(ctx, basePayload(name, city))
}

func (w *World) createWith(ctx context.Context, table *godog.Table) error {
	payload := map[string]any{}
	for _, row := range table.Rows {
		if len(row.Cells) != 2 {
			return fmt.Errorf("expected field | value rows")
		}
		key, val := row.Cells[0].Value, row.Cells[1].Value
		if n, err := strconv.ParseInt(val, 10, 64); err == nil && key != "phone" {
			payload[key] = n
			continue
		}
		payload[key] = val
	}
	return w.create(ctx, payload)
}

func (w *World) createMany(ctx context.Context, n int) error {
	for i := range n {
		if err := w.createNamed(ctx, fmt.Sprintf("Buyer %02d", i+1), "MOHALI"); err != nil {
			return err
		}
		if w.status != http.StatusCreated {
			return fmt.Errorf("buyer %d: status %d: %s", i+1, w.status, w.body)
		}
	}
	return nil
}

func (w *World) update(ctx context.Context, name, status string, version time.Time) error {
	b, err := w.buyer(name)
	if err != nil {
		return err
	}
	payload := map[string]any{"updatedAt": version.Format(time.RFC3339Nano), "status": status}
	if err := w.sendJSON(ctx, http.MethodPatch, "/api/buyers/"+b.ID, payload); err != nil {
		return err
	}
	if w.status == http.StatusOK {
		return w.remember()
	}
	return nil
}

func (w *World) updateStatus(ctx context.Context, name, status string) error {
	b, err := w.buyer(name)
	if err != nil {
		return err
	}
	return w.update(ctx, name, status, b.UpdatedAt)
}

func (w *World) updateStatusStale(ctx context.Context, name, status string) error {
	return w.update(ctx, name, status, w.created[name])
}

func (w *World) view(ctx context.Context, name string) error {
	b, err := w.buyer(name)
	if err != nil {
		return err
	}
	return w.request(ctx, http.MethodGet, "/api/buyers/"+b.ID, "", nil)
}

func (w *World) delete(ctx context.Context, name string) error {
	b, err := w.buyer(name)
	if err != nil {
		return err
	}
	return w.request(ctx, http.MethodDelete, "/api/buyers/"+b.ID, "", nil)
}

func (w *World) importCSV(ctx context.Context, doc *godog.DocString) error {
	return w.request(ctx, http.MethodPost, "/api/buyers/import", "text/csv", bytes.NewBufferString(doc.Content))
}

func (w *World) exportCity(ctx context.Context, city string) error {
	return w.request(ctx, http.MethodGet, "/api/buyers/export?city="+city, "", nil)
}

func (w *World) statusShouldBe(status int) error {
	if w.status != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, w.status, w.body)
	}
	return nil
}

func (w *World) fieldShouldBe(field, want string) error {
	var body map[string]any
	if err := json.Unmarshal(w.body, &body); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if got := fmt.Sprint(body[field]); got != want {
		return fmt.Errorf("expected %s=%q, got %q", field, want, got)
	}
	return nil
}

func (w *World) fieldErrorShouldBe(field, want string) error {
	var body struct {
		Fields []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"fields"`
	}
	if err := json.Unmarshal(w.body, &body); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	for _, f := range body.Fields {
		if f.Field == field {
			if f.Message != want {
				return fmt.Errorf("expected %s error %q, got %q", field, want, f.Message)
			}
			return nil
		}
	}
	return fmt.Errorf("no field error for %s in %s", field, w.body)
}

func (w *World) historyShouldHave(ctx context.Context, name string, n int) error {
	if err := w.view(ctx, name); err != nil {
		return err
	}
	var detail buyermodels.BuyerDetail
	if err := json.Unmarshal(w.body, &detail); err != nil {
		return err
	}
	if len(detail.History) != n {
		return fmt.Errorf("expected %d history entries, got %d", n, len(detail.History))
	}
	return nil
}

func (w *World) importShouldReport(imported int, table *godog.Table) error {
	var res buyermodels.ImportResult
	if err := json.Unmarshal(w.body, &res); err != nil {
		return err
	}
	if res.Imported != imported {
		return fmt.Errorf("expected %d imported, got %d", imported, res.Imported)
	}
	if len(res.Errors) != len(table.Rows) {
		return fmt.Errorf("expected %d errors, got %v", len(table.Rows), res.Errors)
	}
	for i, row := range table.Rows {
		if res.Errors[i] != row.Cells[0].Value {
			return fmt.Errorf("error %d: expected %q, got %q", i, row.Cells[0].Value, res.Errors[i])
		}
	}
	return nil
}

func (w *World) exportShouldContain(n int) error {
	if w.status != http.StatusOK {
		return fmt.Errorf("export failed with %d: %s", w.status, w.body)
	}
	records, err := csv.NewReader(bytes.NewReader(w.body)).ReadAll()
	if err != nil {
		return err
	}
	if got := len(records) - 1; got != n {
		return fmt.Errorf("expected %d exported buyers, got %d", n, got)
	}
	return nil
}
