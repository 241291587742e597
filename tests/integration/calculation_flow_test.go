package integration

import (
	"net/http"
	"testing"
)

func TestCalculationFlow_DebtScheduleFromEnteredData(t *testing.T) {
	app := setupApp(t)
	token, userID := app.registerUser(t, "calc@test.com", "password123")
	projectID := newProjectID()

	// Step 1: Enter the debt structure the calculator consumes
	rec := app.request("PUT", "/api/v1/projects/"+projectID+"/debt-structure",
		`{"total_debt":100000,"bank_base_rate_senior_secured":4,"liquidity_premiums_senior_secured":1,"credit_risk_premiums_senior_secured":1,"maturity_y_senior_secured":10}`,
		token)
	if rec.Code != http.StatusOK {
		t.Fatalf("save debt structure failed: %d %s", rec.Code, rec.Body.String())
	}

	// Step 2: Run the calculation
	rec = app.request("POST", "/api/v1/projects/"+projectID+"/calculations/debt-schedule",
		`{"run_name":"Base case"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("run failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if result["message"] != "Calculation completed successfully" {
		t.Fatalf("expected completed message, got %v", result["message"])
	}
	run := result["data"].(map[string]interface{})
	if run["status"] != "completed" {
		t.Errorf("expected status completed, got %v", run["status"])
	}
	if run["run_name"] != "Base case" {
		t.Errorf("expected run name 'Base case', got %v", run["run_name"])
	}
	if run["triggered_by"] != userID {
		t.Errorf("expected triggered_by %s, got %v", userID, run["triggered_by"])
	}
	runID := run["id"].(string)

	// Step 3: Fetch the run with its schedule
	rec = app.request("GET", "/api/v1/projects/"+projectID+"/calculations/"+runID, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get run failed: %d %s", rec.Code, rec.Body.String())
	}
	result = parseJSON(t, rec)
	data := result["data"].(map[string]interface{})
	output := data["output"].(map[string]interface{})
	schedule := output["schedule"].([]interface{})
	if len(schedule) != 120 {
		t.Fatalf("expected 120 monthly rows for a 10 year loan, got %d", len(schedule))
	}
	last := schedule[len(schedule)-1].(map[string]interface{})
	if closing := last["closing_balance"].(float64); closing > 0.01 || closing < -0.01 {
		t.Errorf("expected final balance near zero, got %v", closing)
	}

	// Step 4: The run shows up in the project's history
	rec = app.request("GET", "/api/v1/projects/"+projectID+"/calculations", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("list runs failed: %d %s", rec.Code, rec.Body.String())
	}
	result = parseJSON(t, rec)
	page := result["data"].(map[string]interface{})
	if page["total_items"].(float64) != 1 {
		t.Errorf("expected 1 run, got %v", page["total_items"])
	}
}

func TestCalculationFlow_MissingDataRecordsFailedRun(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "nocalcdata@test.com", "password123")
	projectID := newProjectID()

	rec := app.request("POST", "/api/v1/projects/"+projectID+"/calculations/debt-schedule", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if result["message"] != "Calculation failed" {
		t.Fatalf("expected failure message, got %v", result["message"])
	}
	run := result["data"].(map[string]interface{})
	if run["status"] != "failed" {
		t.Errorf("expected status failed, got %v", run["status"])
	}
	if run["error_message"] == nil || run["error_message"] == "" {
		t.Error("expected a recorded error message")
	}

	// The failed run is persisted in the history
	rec = app.request("GET", "/api/v1/projects/"+projectID+"/calculations", "", token)
	result = parseJSON(t, rec)
	page := result["data"].(map[string]interface{})
	if page["total_items"].(float64) != 1 {
		t.Errorf("expected the failed run to persist, got %v", page["total_items"])
	}
}

func TestCalculationFlow_DepreciationSchedule(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "depr@test.com", "password123")
	projectID := newProjectID()

	rec := app.request("PUT", "/api/v1/projects/"+projectID+"/balance-sheet",
		`{"capital_expenditure_additions":80000,"asset_depreciated_over_years":4}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("save balance sheet failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = app.request("POST", "/api/v1/projects/"+projectID+"/calculations/depreciation-schedule", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("run failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if result["message"] != "Calculation completed successfully" {
		t.Fatalf("expected completed message, got %v: %s", result["message"], rec.Body.String())
	}
	runID := result["data"].(map[string]interface{})["id"].(string)

	rec = app.request("GET", "/api/v1/projects/"+projectID+"/calculations/"+runID, "", token)
	result = parseJSON(t, rec)
	output := result["data"].(map[string]interface{})["output"].(map[string]interface{})
	schedule := output["schedule"].([]interface{})
	if len(schedule) != 4 {
		t.Fatalf("expected 4 yearly rows, got %d", len(schedule))
	}
	first := schedule[0].(map[string]interface{})
	if first["depreciation"].(float64) != 20000 {
		t.Errorf("expected yearly depreciation 20000, got %v", first["depreciation"])
	}
}

func TestCalculationFlow_RunOfAnotherProjectIsHidden(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "crossproject@test.com", "password123")
	projectA := newProjectID()
	projectB := newProjectID()

	app.request("PUT", "/api/v1/projects/"+projectA+"/debt-structure",
		`{"total_debt":100000,"bank_base_rate_senior_secured":6,"maturity_y_senior_secured":5}`, token)
	rec := app.request("POST", "/api/v1/projects/"+projectA+"/calculations/debt-schedule", "", token)
	runID := parseJSON(t, rec)["data"].(map[string]interface{})["id"].(string)

	rec = app.request("GET", "/api/v1/projects/"+projectB+"/calculations/"+runID, "", token)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 across projects, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	errObj := result["error"].(map[string]interface{})
	if errObj["code"] != "CALCULATION_NOT_FOUND" {
		t.Errorf("expected CALCULATION_NOT_FOUND, got %v", errObj["code"])
	}
}
