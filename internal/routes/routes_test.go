package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/calculon/goals-api/internal/config"
	"github.com/calculon/goals-api/internal/database"
	"github.com/calculon/goals-api/internal/handlers"
	"github.com/calculon/goals-api/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm/logger"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	db, err := database.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared", logger.Silent)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	database.DB = db
	cfg := config.Default()
	cfg.AppEnv = "test"
	cfg.JWTSecret = "test-secret"
	middleware.Configure(cfg.JWTSecret, database.NewStore(db))
	handlers.Configure(cfg)
	return NewApp(cfg)
}

type response struct {
	Status int
	Body   []byte
}

func (r response) decode(t *testing.T, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(r.Body, v); err != nil {
		t.Fatalf("decode %s: %v", r.Body, err)
	}
}

func (r response) errorMessage(t *testing.T) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	r.decode(t, &body)
	return body.Error
}

func do(t *testing.T, app *fiber.App, method, path, token string, body interface{}) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return response{Status: resp.StatusCode, Body: b}
}

type account struct {
	Token string
	ID    string
	Email string
}

func signup(t *testing.T, app *fiber.App, email string) account {
	t.Helper()
	resp := do(t, app, "POST", "/api/auth/signup", "", fiber.Map{"email": email, "password": "secret123"})
	if resp.Status != fiber.StatusCreated {
		t.Fatalf("signup %s: %d %s", email, resp.Status, resp.Body)
	}
	var body struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	resp.decode(t, &body)
	return account{Token: body.Token, ID: body.User.ID, Email: email}
}

func createGoal(t *testing.T, app *fiber.App, token, name, target string) string {
	t.Helper()
	resp := do(t, app, "POST", "/api/goals", token, fiber.Map{
		"name": name, "target_amount": target, "deadline": "2025-12-31",
	})
	if resp.Status != fiber.StatusCreated {
		t.Fatalf("create goal: %d %s", resp.Status, resp.Body)
	}
	var goal struct {
		ID string `json:"id"`
	}
	resp.decode(t, &goal)
	return goal.ID
}

func addExpense(t *testing.T, app *fiber.App, token, goalID, amount, category, date string) response {
	t.Helper()
	return do(t, app, "POST", "/api/goals/"+goalID+"/expenses", token, fiber.Map{
		"amount": amount, "category": category, "date": date,
	})
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t)
	alice := signup(t, app, "alice@example.com")

	resp := do(t, app, "POST", "/api/auth/signup", "", fiber.Map{"email": "alice@example.com", "password": "secret123"})
	if resp.Status != fiber.StatusConflict {
		t.Errorf("duplicate signup = %d, want 409", resp.Status)
	}

	resp = do(t, app, "POST", "/api/auth/signup", "", fiber.Map{"email": "not-an-email", "password": "123"})
	if resp.Status != fiber.StatusUnprocessableEntity {
		t.Fatalf("invalid signup = %d, want 422", resp.Status)
	}
	var invalid struct {
		Fields map[string]string `json:"fields"`
	}
	resp.decode(t, &invalid)
	if invalid.Fields["email"] != "Invalid email address" || invalid.Fields["password"] != "Password must be at least 6 characters" {
		t.Errorf("fields = %v", invalid.Fields)
	}

	resp = do(t, app, "POST", "/api/auth/login", "", fiber.Map{"email": "alice@example.com", "password": "wrong-password"})
	if resp.Status != fiber.StatusUnauthorized || resp.errorMessage(t) != "Invalid credentials" {
		t.Errorf("bad login = %d %s", resp.Status, resp.Body)
	}

	resp = do(t, app, "POST", "/api/auth/login", "", fiber.Map{"email": "alice@example.com", "password": "secret123"})
	if resp.Status != fiber.StatusOK {
		t.Fatalf("login = %d %s", resp.Status, resp.Body)
	}
	var login struct {
		Token string `json:"token"`
	}
	resp.decode(t, &login)

	resp = do(t, app, "GET", "/api/me", login.Token, nil)
	var me struct {
		ID       string `json:"id"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	resp.decode(t, &me)
	if resp.Status != fiber.StatusOK || me.ID != alice.ID || me.Password != "" {
		t.Errorf("me = %d %s", resp.Status, resp.Body)
	}

	if resp := do(t, app, "POST", "/api/auth/logout", login.Token, nil); resp.Status != fiber.StatusNoContent {
		t.Fatalf("logout = %d %s", resp.Status, resp.Body)
	}
	if resp := do(t, app, "GET", "/api/me", login.Token, nil); resp.Status != fiber.StatusUnauthorized {
		t.Errorf("me after logout = %d, want 401", resp.Status)
	}
	if resp := do(t, app, "GET", "/api/me", alice.Token, nil); resp.Status != fiber.StatusOK {
		t.Errorf("other session signed out too: %d", resp.Status)
	}
	if resp := do(t, app, "GET", "/api/goals", "", nil); resp.Status != fiber.StatusUnauthorized {
		t.Errorf("anonymous goals = %d, want 401", resp.Status)
	}
}

func TestGoalBudget(t *testing.T) {
	app := newTestApp(t)
	alice := signup(t, app, "alice@example.com")

	resp := do(t, app, "POST", "/api/goals", alice.Token, fiber.Map{
		"name": "", "target_amount": "-5", "deadline": "31/12/2025",
	})
	if resp.Status != fiber.StatusUnprocessableEntity {
		t.Fatalf("invalid goal = %d, want 422", resp.Status)
	}
	var invalid struct {
		Fields map[string]string `json:"fields"`
	}
	resp.decode(t, &invalid)
	want := map[string]string{
		"name":          "Name is required",
		"target_amount": "Target amount must be a positive number",
		"deadline":      "Invalid date format",
	}
	for field, msg := range want {
		if invalid.Fields[field] != msg {
			t.Errorf("field %s = %q, want %q", field, invalid.Fields[field], msg)
		}
	}

	goalID := createGoal(t, app, alice.Token, "Trip", "1000")
	for _, e := range []struct{ amount, category, date string }{
		{"600", "ING", "2025-01-10"},
		{"200", "Revolut", "2025-02-10"},
		{"100", "ING", "2025-03-10"},
	} {
		if resp := addExpense(t, app, alice.Token, goalID, e.amount, e.category, e.date); resp.Status != fiber.StatusCreated {
			t.Fatalf("add expense: %d %s", resp.Status, resp.Body)
		}
	}

	resp = do(t, app, "POST", "/api/goals/"+goalID+"/adjustments", alice.Token, fiber.Map{"amount": "0", "reason": ""})
	if resp.Status != fiber.StatusUnprocessableEntity {
		t.Errorf("invalid adjustment = %d, want 422", resp.Status)
	}

	resp = do(t, app, "GET", "/api/goals/"+goalID+"/summary", alice.Token, nil)
	var summary struct {
		TotalSpent        float64 `json:"total_spent"`
		AdjustedBudget    float64 `json:"adjusted_budget"`
		Percentage        float64 `json:"percentage"`
		OverBudgetWarning bool    `json:"over_budget_warning"`
		IsOverBudget      bool    `json:"is_over_budget"`
	}
	resp.decode(t, &summary)
	if summary.TotalSpent != 900 || summary.Percentage != 90 || !summary.OverBudgetWarning || summary.IsOverBudget {
		t.Errorf("summary before adjustment = %s", resp.Body)
	}

	resp = do(t, app, "POST", "/api/goals/"+goalID+"/adjustments", alice.Token, fiber.Map{"amount": "500", "reason": "Bonus"})
	if resp.Status != fiber.StatusCreated {
		t.Fatalf("add adjustment: %d %s", resp.Status, resp.Body)
	}

	resp = do(t, app, "GET", "/api/goals/"+goalID, alice.Token, nil)
	var detail struct {
		Role    string `json:"role"`
		Warning string `json:"warning"`
		Summary struct {
			AdjustedBudget float64 `json:"adjusted_budget"`
			Percentage     float64 `json:"percentage"`
			Categories     []struct {
				Category string  `json:"category"`
				Amount   float64 `json:"amount"`
			} `json:"categories"`
		} `json:"summary"`
		Expenses []struct {
			Date string `json:"date"`
		} `json:"expenses"`
	}
	resp.decode(t, &detail)
	if detail.Role != "owner" || detail.Summary.AdjustedBudget != 1500 || detail.Summary.Percentage != 60 || detail.Warning != "" {
		t.Errorf("detail = %s", resp.Body)
	}
	if len(detail.Summary.Categories) != 2 || detail.Summary.Categories[0].Category != "ING" || detail.Summary.Categories[0].Amount != 700 {
		t.Errorf("categories = %+v", detail.Summary.Categories)
	}
	if len(detail.Expenses) != 3 || detail.Expenses[0].Date != "2025-03-10" {
		t.Errorf("expenses not newest first: %+v", detail.Expenses)
	}

	resp = do(t, app, "GET", "/api/expenses?sort=amount&dir=asc", alice.Token, nil)
	var expenses []struct {
		Amount float64 `json:"amount"`
	}
	resp.decode(t, &expenses)
	if len(expenses) != 3 || expenses[0].Amount != 100 || expenses[2].Amount != 600 {
		t.Errorf("sorted expenses = %s", resp.Body)
	}
	if resp := do(t, app, "GET", "/api/expenses?sort=notes", alice.Token, nil); resp.Status != fiber.StatusBadRequest {
		t.Errorf("bad sort = %d, want 400", resp.Status)
	}

	resp = do(t, app, "GET", "/api/adjustments", alice.Token, nil)
	var adjustments []map[string]interface{}
	resp.decode(t, &adjustments)
	if len(adjustments) != 1 {
		t.Errorf("adjustments = %s", resp.Body)
	}
}

func TestExpenseRateLimit(t *testing.T) {
	app := newTestApp(t)
	alice := signup(t, app, "alice@example.com")
	goalID := createGoal(t, app, alice.Token, "Trip", "1000")

	// Invalid submissions do not use up the window.
	if resp := addExpense(t, app, alice.Token, goalID, "abc", "ING", "2025-01-01"); resp.Status != fiber.StatusUnprocessableEntity {
		t.Fatalf("invalid expense = %d", resp.Status)
	}

	for i := 0; i < 5; i++ {
		resp := addExpense(t, app, alice.Token, goalID, "10", "Other", fmt.Sprintf("2025-01-%02d", i+1))
		if resp.Status != fiber.StatusCreated {
			t.Fatalf("expense %d = %d %s", i+1, resp.Status, resp.Body)
		}
	}

	resp := addExpense(t, app, alice.Token, goalID, "10", "Other", "2025-01-06")
	if resp.Status != fiber.StatusTooManyRequests || resp.errorMessage(t) != "Too many expenses added. Please wait a minute." {
		t.Fatalf("6th expense = %d %s", resp.Status, resp.Body)
	}

	resp = do(t, app, "GET", "/api/expenses", alice.Token, nil)
	var expenses []map[string]interface{}
	resp.decode(t, &expenses)
	if len(expenses) != 5 {
		t.Errorf("stored %d expenses, want 5", len(expenses))
	}
}

func TestSharing(t *testing.T) {
	app := newTestApp(t)
	owner := signup(t, app, "owner@example.com")
	bob := signup(t, app, "bob@example.com")
	carol := signup(t, app, "carol@example.com")
	goalID := createGoal(t, app, owner.Token, "House", "5000")
	collaborators := "/api/goals/" + goalID + "/collaborators"

	resp := do(t, app, "POST", collaborators, owner.Token, fiber.Map{"email": "nobody@example.com"})
	if resp.Status != fiber.StatusNotFound || resp.errorMessage(t) != "User not found" {
		t.Errorf("unknown invitee = %d %s", resp.Status, resp.Body)
	}
	resp = do(t, app, "POST", collaborators, owner.Token, fiber.Map{"email": "owner@example.com"})
	if resp.Status != fiber.StatusBadRequest {
		t.Errorf("self invite = %d, want 400", resp.Status)
	}
	resp = do(t, app, "POST", collaborators, owner.Token, fiber.Map{"email": "bob@example.com", "role": "superuser"})
	if resp.Status != fiber.StatusUnprocessableEntity {
		t.Errorf("bad role = %d, want 422", resp.Status)
	}

	resp = do(t, app, "POST", collaborators, owner.Token, fiber.Map{"email": "bob@example.com"})
	if resp.Status != fiber.StatusCreated {
		t.Fatalf("invite bob = %d %s", resp.Status, resp.Body)
	}
	var info struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	resp.decode(t, &info)
	if info.Email != "bob@example.com" || info.Role != "viewer" {
		t.Errorf("invite = %s", resp.Body)
	}

	resp = do(t, app, "POST", collaborators, owner.Token, fiber.Map{"email": "bob@example.com", "role": "editor"})
	if resp.Status != fiber.StatusConflict || resp.errorMessage(t) != "This user is already a collaborator" {
		t.Errorf("duplicate invite = %d %s", resp.Status, resp.Body)
	}

	// Bob sees the shared goal; Carol does not.
	var goals []struct {
		ID string `json:"id"`
	}
	do(t, app, "GET", "/api/goals", bob.Token, nil).decode(t, &goals)
	if len(goals) != 1 || goals[0].ID != goalID {
		t.Errorf("bob's goals = %+v", goals)
	}
	do(t, app, "GET", "/api/goals", carol.Token, nil).decode(t, &goals)
	if len(goals) != 0 {
		t.Errorf("carol's goals = %+v", goals)
	}
	if resp := do(t, app, "GET", "/api/goals/"+goalID, carol.Token, nil); resp.Status != fiber.StatusNotFound {
		t.Errorf("carol reads goal = %d, want 404", resp.Status)
	}

	// Viewers read but cannot write or share.
	if resp := addExpense(t, app, bob.Token, goalID, "10", "ING", "2025-01-01"); resp.Status != fiber.StatusForbidden {
		t.Errorf("viewer expense = %d, want 403", resp.Status)
	}
	if resp := do(t, app, "POST", collaborators, bob.Token, fiber.Map{"email": "carol@example.com"}); resp.Status != fiber.StatusForbidden {
		t.Errorf("viewer share = %d, want 403", resp.Status)
	}

	var list []struct {
		Email string `json:"email"`
	}
	do(t, app, "GET", collaborators, bob.Token, nil).decode(t, &list)
	if len(list) != 1 || list[0].Email != "bob@example.com" {
		t.Errorf("collaborators = %+v", list)
	}

	if resp := do(t, app, "DELETE", "/api/goals/"+goalID, bob.Token, nil); resp.Status != fiber.StatusForbidden {
		t.Errorf("viewer delete = %d, want 403", resp.Status)
	}
	if resp := do(t, app, "DELETE", "/api/goals/"+goalID, owner.Token, nil); resp.Status != fiber.StatusNoContent {
		t.Fatalf("owner delete = %d %s", resp.Status, resp.Body)
	}
	do(t, app, "GET", "/api/goals", bob.Token, nil).decode(t, &goals)
	if len(goals) != 0 {
		t.Errorf("deleted goal still listed for bob: %+v", goals)
	}
}

func TestEditorCanWrite(t *testing.T) {
	app := newTestApp(t)
	owner := signup(t, app, "owner@example.com")
	ed := signup(t, app, "ed@example.com")
	goalID := createGoal(t, app, owner.Token, "Car", "2000")

	resp := do(t, app, "POST", "/api/goals/"+goalID+"/collaborators", owner.Token, fiber.Map{"email": "ed@example.com", "role": "editor"})
	if resp.Status != fiber.StatusCreated {
		t.Fatalf("invite = %d %s", resp.Status, resp.Body)
	}

	if resp := addExpense(t, app, ed.Token, goalID, "150.50", "ING Blik", "2025-04-01"); resp.Status != fiber.StatusCreated {
		t.Errorf("editor expense = %d %s", resp.Status, resp.Body)
	}
	resp = do(t, app, "POST", "/api/goals/"+goalID+"/expenses", ed.Token, fiber.Map{
		"amount": "1", "category": "ING", "date": "2025-04-02", "goal_id": uuid.NewString(),
	})
	if resp.Status != fiber.StatusBadRequest {
		t.Errorf("mismatched goal id = %d, want 400", resp.Status)
	}
	resp = do(t, app, "POST", "/api/goals/"+goalID+"/expenses", ed.Token, fiber.Map{
		"amount": 12.5, "category": "ING", "date": "2025-04-02", "goal_id": strings.ToUpper(goalID),
	})
	if resp.Status != fiber.StatusCreated {
		t.Errorf("numeric amount with upper-case goal id = %d %s", resp.Status, resp.Body)
	}
	for _, amount := range []string{"0.004", "1e13"} {
		resp = addExpense(t, app, ed.Token, goalID, amount, "ING", "2025-04-03")
		if resp.Status != fiber.StatusUnprocessableEntity {
			t.Errorf("amount %s = %d, want 422", amount, resp.Status)
		}
	}
	if resp := do(t, app, "DELETE", "/api/goals/"+goalID, ed.Token, nil); resp.Status != fiber.StatusForbidden {
		t.Errorf("editor delete = %d, want 403", resp.Status)
	}
}

func TestTheme(t *testing.T) {
	app := newTestApp(t)
	alice := signup(t, app, "alice@example.com")

	theme := func(resp response) string {
		var s struct {
			Theme string `json:"theme"`
		}
		resp.decode(t, &s)
		return s.Theme
	}

	if got := theme(do(t, app, "GET", "/api/settings/theme", alice.Token, nil)); got != "light" {
		t.Errorf("default theme = %q", got)
	}
	if got := theme(do(t, app, "PUT", "/api/settings/theme", alice.Token, nil)); got != "dark" {
		t.Errorf("toggled theme = %q", got)
	}
	if got := theme(do(t, app, "PUT", "/api/settings/theme", alice.Token, fiber.Map{"theme": "light"})); got != "light" {
		t.Errorf("set theme = %q", got)
	}
	if resp := do(t, app, "PUT", "/api/settings/theme", alice.Token, fiber.Map{"theme": "blue"}); resp.Status != fiber.StatusUnprocessableEntity {
		t.Errorf("bad theme = %d, want 422", resp.Status)
	}
	if got := theme(do(t, app, "GET", "/api/settings/theme", alice.Token, nil)); got != "light" {
		t.Errorf("persisted theme = %q", got)
	}
}

func TestCategories(t *testing.T) {
	app := newTestApp(t)
	alice := signup(t, app, "alice@example.com")

	var categories []struct {
		Name  string `json:"name"`
		Color string `json:"color"`
	}
	do(t, app, "GET", "/api/categories", alice.Token, nil).decode(t, &categories)
	if len(categories) != 4 || categories[0].Name != "ING" || categories[0].Color != "#f97316" {
		t.Errorf("categories = %+v", categories)
	}
}
