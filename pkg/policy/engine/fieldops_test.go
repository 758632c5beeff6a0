package engine

import (
	"reflect"
	"testing"
)

func employeeDoc() map[string]interface{} {
	return map[string]interface{}{
		"department": "HR",
		"salary":     90000.0,
		"name":       "A",
	}
}

// TestFilterFields_RemovesTopLevelKeys covers the basic filter semantics.
func TestFilterFields_RemovesTopLevelKeys(t *testing.T) {
	got := FilterFields(employeeDoc(), []string{"salary"})
	want := map[string]interface{}{"department": "HR", "name": "A"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FilterFields = %v, want %v", got, want)
	}
}

// TestFilterFields_AbsentKeyNoOp verifies absent fields are silently
// skipped, not errors.
func TestFilterFields_AbsentKeyNoOp(t *testing.T) {
	got := FilterFields(employeeDoc(), []string{"no_such_field"})
	if !reflect.DeepEqual(got, employeeDoc()) {
		t.Errorf("FilterFields with absent key = %v, want unchanged", got)
	}
}

// TestFilterFields_Idempotent verifies applying the same filter twice
// equals applying it once.
func TestFilterFields_Idempotent(t *testing.T) {
	once := FilterFields(employeeDoc(), []string{"salary"})
	twice := FilterFields(once, []string{"salary"})
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second application changed the document: %v != %v", twice, once)
	}
}

// TestFilterFields_ArrayOfObjects verifies per-element application with
// preserved order.
func TestFilterFields_ArrayOfObjects(t *testing.T) {
	doc := []interface{}{
		map[string]interface{}{"ssn": "1", "name": "A"},
		map[string]interface{}{"ssn": "2", "name": "B"},
		map[string]interface{}{"ssn": "3", "name": "C"},
	}
	got := FilterFields(doc, []string{"ssn"})
	want := []interface{}{
		map[string]interface{}{"name": "A"},
		map[string]interface{}{"name": "B"},
		map[string]interface{}{"name": "C"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FilterFields over array = %v, want %v", got, want)
	}
}

// TestFilterFields_BareSSNArray is the minimal redaction scenario: every
// element loses the field, leaving empty objects.
func TestFilterFields_BareSSNArray(t *testing.T) {
	doc := []interface{}{
		map[string]interface{}{"ssn": "1"},
		map[string]interface{}{"ssn": "2"},
	}
	got := FilterFields(doc, []string{"ssn"})
	want := []interface{}{
		map[string]interface{}{},
		map[string]interface{}{},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FilterFields = %v, want %v", got, want)
	}
}

// TestFilterFields_RemovesWholeSubtree verifies removal of a key takes its
// nested contents with it.
func TestFilterFields_RemovesWholeSubtree(t *testing.T) {
	doc := map[string]interface{}{
		"public": "ok",
		"compensation": map[string]interface{}{
			"salary": 90000.0,
			"bonus":  5000.0,
		},
	}
	got := FilterFields(doc, []string{"compensation"})
	want := map[string]interface{}{"public": "ok"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FilterFields = %v, want %v", got, want)
	}
}

// TestFilterFields_DoesNotMutateInput verifies the input document is left
// intact.
func TestFilterFields_DoesNotMutateInput(t *testing.T) {
	doc := employeeDoc()
	FilterFields(doc, []string{"salary"})
	if _, ok := doc["salary"]; !ok {
		t.Error("input document was mutated")
	}
}

// TestMaskFields covers masking semantics: value replaced, key kept.
func TestMaskFields(t *testing.T) {
	got := MaskFields(employeeDoc(), []string{"salary"})
	want := map[string]interface{}{
		"department": "HR",
		"salary":     MaskToken,
		"name":       "A",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("MaskFields = %v, want %v", got, want)
	}
}

// TestMaskFields_AbsentKeyNoOp verifies masking never introduces keys.
func TestMaskFields_AbsentKeyNoOp(t *testing.T) {
	got := MaskFields(employeeDoc(), []string{"missing"})
	if !reflect.DeepEqual(got, employeeDoc()) {
		t.Errorf("MaskFields with absent key = %v, want unchanged", got)
	}
}

// TestMaskFields_Idempotent verifies a masked field stays masked.
func TestMaskFields_Idempotent(t *testing.T) {
	once := MaskFields(employeeDoc(), []string{"salary"})
	twice := MaskFields(once, []string{"salary"})
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second application changed the document: %v != %v", twice, once)
	}
}

// TestMaskFields_ArrayOrderPreserved verifies masking an array keeps
// element order and transforms each element independently.
func TestMaskFields_ArrayOrderPreserved(t *testing.T) {
	doc := []interface{}{
		map[string]interface{}{"email": "a@x.com", "name": "A"},
		map[string]interface{}{"name": "B"},
		map[string]interface{}{"email": "c@x.com", "name": "C"},
	}
	got, ok := MaskFields(doc, []string{"email"}).([]interface{})
	if !ok || len(got) != 3 {
		t.Fatalf("MaskFields returned %T of len %d, want 3-element array", got, len(got))
	}
	if got[0].(map[string]interface{})["email"] != MaskToken {
		t.Error("first element not masked")
	}
	if _, present := got[1].(map[string]interface{})["email"]; present {
		t.Error("mask introduced a key into element without it")
	}
	if got[2].(map[string]interface{})["name"] != "C" {
		t.Error("element order not preserved")
	}
}

// TestFilterSensitiveFields_SchemaDriven verifies removal is guided only by
// the schema annotations, at any depth.
func TestFilterSensitiveFields_SchemaDriven(t *testing.T) {
	doc := map[string]interface{}{
		"name": "A",
		"ssn":  "123-45-6789",
		"employment": map[string]interface{}{
			"title":  "Analyst",
			"salary": 90000.0,
		},
		"items": []interface{}{
			map[string]interface{}{"sku": "X", "cost": 10.0},
			map[string]interface{}{"sku": "Y", "cost": 20.0},
		},
	}
	sens := SchemaSensitivity{
		"ssn":               true,
		"employment.salary": true,
		"items.cost":        true,
	}

	got := FilterSensitiveFields(doc, sens).(map[string]interface{})

	if _, ok := got["ssn"]; ok {
		t.Error("top-level sensitive field survived")
	}
	emp := got["employment"].(map[string]interface{})
	if _, ok := emp["salary"]; ok {
		t.Error("nested sensitive field survived")
	}
	if emp["title"] != "Analyst" {
		t.Error("unannotated sibling removed")
	}
	items := got["items"].([]interface{})
	for i, e := range items {
		elem := e.(map[string]interface{})
		if _, ok := elem["cost"]; ok {
			t.Errorf("sensitive field inside array element %d survived", i)
		}
		if _, ok := elem["sku"]; !ok {
			t.Errorf("unannotated field inside array element %d removed", i)
		}
	}
}

// TestFilterSensitiveFields_WholeSubObject verifies a sensitive annotation
// on an object path removes the whole subtree.
func TestFilterSensitiveFields_WholeSubObject(t *testing.T) {
	doc := map[string]interface{}{
		"name": "A",
		"compensation": map[string]interface{}{
			"salary": 90000.0,
			"bonus":  5000.0,
		},
	}
	got := FilterSensitiveFields(doc, SchemaSensitivity{"compensation": true}).(map[string]interface{})
	if _, ok := got["compensation"]; ok {
		t.Error("sensitive sub-object survived")
	}
	if got["name"] != "A" {
		t.Error("unannotated field removed")
	}
}

// TestFilterSensitiveFields_NameCoincidence verifies conventionally
// sensitive names are kept when the schema does not annotate them.
func TestFilterSensitiveFields_NameCoincidence(t *testing.T) {
	doc := map[string]interface{}{
		"password": "hunter2",
		"ssn":      "123",
		"token":    "abc",
	}
	// Only ssn is annotated; password and token must survive.
	got := FilterSensitiveFields(doc, SchemaSensitivity{"ssn": true}).(map[string]interface{})
	if _, ok := got["password"]; !ok {
		t.Error("unannotated 'password' was removed by name")
	}
	if _, ok := got["token"]; !ok {
		t.Error("unannotated 'token' was removed by name")
	}
	if _, ok := got["ssn"]; ok {
		t.Error("annotated ssn survived")
	}
}

// TestFilterSensitiveFields_Idempotent verifies re-application is a no-op.
func TestFilterSensitiveFields_Idempotent(t *testing.T) {
	doc := map[string]interface{}{
		"a": "x",
		"b": map[string]interface{}{"secret": 1.0, "open": 2.0},
	}
	sens := SchemaSensitivity{"b.secret": true}
	once := FilterSensitiveFields(doc, sens)
	twice := FilterSensitiveFields(once, sens)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("second application changed the document: %v != %v", twice, once)
	}
}

// TestFieldOps_ScalarPassThrough verifies non-object documents pass through
// unchanged rather than erroring.
func TestFieldOps_ScalarPassThrough(t *testing.T) {
	if got := FilterFields("just a string", []string{"x"}); got != "just a string" {
		t.Errorf("FilterFields on scalar = %v", got)
	}
	if got := MaskFields(42.0, []string{"x"}); got != 42.0 {
		t.Errorf("MaskFields on scalar = %v", got)
	}
}
