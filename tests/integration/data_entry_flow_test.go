package integration

import (
	"net/http"
	"testing"
)

func TestDataEntryFlow_CreateUpdateDelete(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "entry@test.com", "password123")
	projectID := newProjectID()
	base := "/api/v1/projects/" + projectID + "/debt-structure"

	// Step 1: First save creates the record at version 1
	rec := app.request("PUT", base, `{"total_debt":500000,"interest_rate":5.5}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if result["message"] != "Data created successfully" {
		t.Errorf("expected created message, got %v", result["message"])
	}
	audit := result["audit"].(map[string]interface{})
	if audit["isNewRecord"] != true {
		t.Error("expected isNewRecord true on first save")
	}
	if audit["version"].(float64) != 1 {
		t.Errorf("expected version 1, got %v", audit["version"])
	}

	// Step 2: Partial update touches only the changed field
	rec = app.request("PATCH", base, `{"total_debt":480000,"interest_rate":5.5}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result = parseJSON(t, rec)
	if result["message"] != "Data updated successfully" {
		t.Errorf("expected updated message, got %v", result["message"])
	}
	audit = result["audit"].(map[string]interface{})
	if audit["version"].(float64) != 2 {
		t.Errorf("expected version 2, got %v", audit["version"])
	}
	changed := audit["changedFields"].([]interface{})
	if len(changed) != 1 || changed[0] != "total_debt" {
		t.Errorf("expected changed fields [total_debt], got %v", changed)
	}

	// Step 3: The untouched field survives the partial update
	rec = app.request("GET", base, "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result = parseJSON(t, rec)
	data := result["data"].(map[string]interface{})
	fields := data["fields"].(map[string]interface{})
	if fields["total_debt"].(float64) != 480000 {
		t.Errorf("expected total_debt 480000, got %v", fields["total_debt"])
	}
	if fields["interest_rate"].(float64) != 5.5 {
		t.Errorf("expected interest_rate 5.5, got %v", fields["interest_rate"])
	}

	// Step 4: Saving the same values again writes nothing
	rec = app.request("PUT", base, `{"total_debt":480000}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result = parseJSON(t, rec)
	if result["message"] != "No changes detected" {
		t.Errorf("expected no-change message, got %v", result["message"])
	}
	audit = result["audit"].(map[string]interface{})
	if audit["changesDetected"] != false {
		t.Error("expected changesDetected false")
	}

	// Step 5: A numeric string is coerced before comparison, not a change
	rec = app.request("PUT", base, `{"total_debt":"480000"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result = parseJSON(t, rec)
	if result["message"] != "No changes detected" {
		t.Errorf("expected no-change message for coerced value, got %v", result["message"])
	}

	// Step 6: Delete removes the record
	rec = app.request("DELETE", base+"?change_reason=Cleanup", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result = parseJSON(t, rec)
	if result["message"] != "Data deleted successfully" {
		t.Errorf("expected deleted message, got %v", result["message"])
	}

	// Step 7: Record is gone and a re-save restarts at version 1
	rec = app.request("GET", base, "", token)
	result = parseJSON(t, rec)
	if result["data"] != nil {
		t.Errorf("expected null data after delete, got %v", result["data"])
	}

	rec = app.request("PUT", base, `{"total_debt":99}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result = parseJSON(t, rec)
	audit = result["audit"].(map[string]interface{})
	if audit["version"].(float64) != 1 {
		t.Errorf("expected fresh cycle at version 1, got %v", audit["version"])
	}
}

func TestDataEntryFlow_ProjectsAreIsolated(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "isolated@test.com", "password123")
	projectA := newProjectID()
	projectB := newProjectID()

	rec := app.request("PUT", "/api/v1/projects/"+projectA+"/debt-structure", `{"total_debt":1}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request("GET", "/api/v1/projects/"+projectB+"/debt-structure", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if result["data"] != nil {
		t.Errorf("expected no data for another project, got %v", result["data"])
	}
}

func TestDataEntryFlow_DerivedProfitLossLines(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "derived@test.com", "password123")
	projectID := newProjectID()
	base := "/api/v1/projects/" + projectID + "/profit-loss"

	rec := app.request("PUT", base, `{"revenue":1000,"cogs":400}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	data := result["data"].(map[string]interface{})
	fields := data["fields"].(map[string]interface{})
	if fields["gross_profit"].(float64) != 600 {
		t.Errorf("expected derived gross_profit 600, got %v", fields["gross_profit"])
	}
}

func TestDataEntryFlow_EachResourceKeepsOneRecord(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "resources@test.com", "password123")
	projectID := newProjectID()

	// Different resources of the same project are independent records
	rec := app.request("PUT", "/api/v1/projects/"+projectID+"/company-details",
		`{"company_name":"Acme GmbH"}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request("PUT", "/api/v1/projects/"+projectID+"/debt-structure",
		`{"total_debt":500000}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = app.request("GET", "/api/v1/projects/"+projectID+"/company-details", "", token)
	result := parseJSON(t, rec)
	fields := result["data"].(map[string]interface{})["fields"].(map[string]interface{})
	if fields["company_name"] != "Acme GmbH" {
		t.Errorf("expected company_name Acme GmbH, got %v", fields["company_name"])
	}
	if _, present := fields["total_debt"]; present {
		t.Error("debt fields must not leak into company details")
	}
}
