package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/ignite/newsletter/internal/auth"
	"github.com/ignite/newsletter/internal/newsletter"
	"github.com/ignite/newsletter/internal/subscriptions"
)

var testHashParams = auth.Params{
	Memory:      8 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

type sentMail struct {
	to       string
	subject  string
	htmlBody string
	textBody string
}

type fakeMailer struct {
	sends []sentMail
	err   error
}

func (f *fakeMailer) Send(ctx context.Context, to, subject, htmlBody, textBody string) error {
	if f.err != nil {
		return f.err
	}
	f.sends = append(f.sends, sentMail{to, subject, htmlBody, textBody})
	return nil
}

type testApp struct {
	handler http.Handler
	mock    sqlmock.Sqlmock
	mailer  *fakeMailer
	cleanup func()
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	m := &fakeMailer{}
	store := subscriptions.NewStore(db)
	subsSvc := subscriptions.NewService(store, m, "https://newsletter.example.com")
	newsSvc := newsletter.NewService(store, m)

	verifier := auth.NewVerifier(2)
	basicAuth := auth.NewBasicAuth(auth.NewCredentialStore(db), verifier, "publish")

	h := NewHandlers(subsSvc, newsSvc)
	return &testApp{
		handler: SetupRoutes(h, basicAuth.RequireAuth),
		mock:    mock,
		mailer:  m,
		cleanup: func() {
			verifier.Close()
			db.Close()
		},
	}
}

func subscribeForm(email, name string) *http.Request {
	form := url.Values{}
	form.Set("email", email)
	form.Set("name", name)
	req := httptest.NewRequest("POST", "/subscriptions", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func extractToken(t *testing.T, body string) string {
	t.Helper()
	i := strings.Index(body, "token=")
	if i < 0 {
		t.Fatalf("no token in mail body: %q", body)
	}
	tok := body[i+len("token="):]
	if j := strings.IndexAny(tok, "\"< \n"); j >= 0 {
		tok = tok[:j]
	}
	return tok
}

// The full onboarding journey: signup, confirmation link, protected publish.
func TestSubscribeConfirmPublishJourney(t *testing.T) {
	app := newTestApp(t)
	defer app.cleanup()

	// 1. Signup stores the pending subscriber and token atomically.
	app.mock.ExpectBegin()
	app.mock.ExpectExec("INSERT INTO subscriptions").
		WithArgs(sqlmock.AnyArg(), "ursula_le_guin@gmail.com", "le guin", sqlmock.AnyArg(), "pending_confirmation").
		WillReturnResult(sqlmock.NewResult(0, 1))
	app.mock.ExpectExec("INSERT INTO subscription_tokens").
		WillReturnResult(sqlmock.NewResult(0, 1))
	app.mock.ExpectCommit()

	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, subscribeForm("ursula_le_guin@gmail.com", "le guin"))
	if rec.Code != http.StatusOK {
		t.Fatalf("subscribe status = %d, want 200 (body %s)", rec.Code, rec.Body)
	}
	if len(app.mailer.sends) != 1 {
		t.Fatalf("mail sends = %d, want 1", len(app.mailer.sends))
	}
	tok := extractToken(t, app.mailer.sends[0].textBody)
	if tok != extractToken(t, app.mailer.sends[0].htmlBody) {
		t.Error("HTML and text confirmation links differ")
	}

	// 2. Visiting the emailed link confirms the subscriber.
	subscriberID := uuid.New()
	app.mock.ExpectQuery("SELECT subscriber_id FROM subscription_tokens").
		WithArgs(tok).
		WillReturnRows(sqlmock.NewRows([]string{"subscriber_id"}).AddRow(subscriberID))
	app.mock.ExpectExec("UPDATE subscriptions SET status").
		WithArgs("confirmed", subscriberID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec = httptest.NewRecorder()
	app.handler.ServeHTTP(rec, httptest.NewRequest("GET", "/subscriptions/confirm?token="+tok, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm status = %d, want 200 (body %s)", rec.Code, rec.Body)
	}

	// 3. Publishing without credentials is challenged.
	rec = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/newsletters", strings.NewReader(`{"title":"Issue #1","content":{"html":"<p>hi</p>","text":"hi"}}`))
	req.Header.Set("Content-Type", "application/json")
	app.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated publish status = %d, want 401", rec.Code)
	}
	if got := rec.Header().Get("WWW-Authenticate"); got != `Basic realm="publish"` {
		t.Errorf("WWW-Authenticate = %q", got)
	}

	// 4. With credentials the issue reaches the confirmed subscriber.
	hash, err := auth.HashPasswordWith(testHashParams, "than-to-live-forever")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	app.mock.ExpectQuery("SELECT user_id, password_hash FROM users").
		WithArgs("editor").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "password_hash"}).AddRow(uuid.New(), hash))
	app.mock.ExpectQuery("SELECT email FROM subscriptions").
		WithArgs("confirmed").
		WillReturnRows(sqlmock.NewRows([]string{"email"}).AddRow("ursula_le_guin@gmail.com"))

	app.mailer.sends = nil
	rec = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/newsletters", strings.NewReader(`{"title":"Issue #1","content":{"html":"<p>hi</p>","text":"hi"}}`))
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth("editor", "than-to-live-forever")
	app.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("publish status = %d, want 200 (body %s)", rec.Code, rec.Body)
	}
	if len(app.mailer.sends) != 1 || app.mailer.sends[0].to != "ursula_le_guin@gmail.com" {
		t.Errorf("newsletter sends = %+v, want one to ursula_le_guin@gmail.com", app.mailer.sends)
	}
	if app.mailer.sends[0].subject != "Issue #1" {
		t.Errorf("subject = %q, want issue title", app.mailer.sends[0].subject)
	}

	if err := app.mock.ExpectationsWereMet(); err != nil {
		t.Errorf("store expectations: %v", err)
	}
}

func TestSubscribeValidationFailures(t *testing.T) {
	tests := []struct {
		name  string
		email string
		sub   string
	}{
		{"missing email", "", "le guin"},
		{"malformed email", "definitely-not-an-email", "le guin"},
		{"missing name", "ursula_le_guin@gmail.com", ""},
		{"forbidden name character", "ursula_le_guin@gmail.com", "{le guin}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			defer app.cleanup()

			rec := httptest.NewRecorder()
			app.handler.ServeHTTP(rec, subscribeForm(tt.email, tt.sub))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
			if len(app.mailer.sends) != 0 {
				t.Errorf("mail sends = %d, want 0", len(app.mailer.sends))
			}
			if err := app.mock.ExpectationsWereMet(); err != nil {
				t.Errorf("store was touched: %v", err)
			}
		})
	}
}

func TestConfirmUnknownTokenIs401(t *testing.T) {
	app := newTestApp(t)
	defer app.cleanup()

	app.mock.ExpectQuery("SELECT subscriber_id FROM subscription_tokens").
		WillReturnRows(sqlmock.NewRows([]string{"subscriber_id"}))

	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, httptest.NewRequest("GET", "/subscriptions/confirm?token=unknowntokenunknowntoken1", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestConfirmMissingTokenIs400(t *testing.T) {
	app := newTestApp(t)
	defer app.cleanup()

	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, httptest.NewRequest("GET", "/subscriptions/confirm", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestSubscribeStoreFailureIs500(t *testing.T) {
	app := newTestApp(t)
	defer app.cleanup()

	app.mock.ExpectBegin().WillReturnError(context.DeadlineExceeded)

	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, subscribeForm("ursula_le_guin@gmail.com", "le guin"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestPublishInvalidBodyIs400(t *testing.T) {
	app := newTestApp(t)
	defer app.cleanup()

	hash, err := auth.HashPasswordWith(testHashParams, "pw")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	app.mock.ExpectQuery("SELECT user_id, password_hash FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "password_hash"}).AddRow(uuid.New(), hash))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/newsletters", strings.NewReader("{not json"))
	req.SetBasicAuth("editor", "pw")
	app.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	app := newTestApp(t)
	defer app.cleanup()

	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}
