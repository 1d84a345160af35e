package config

import "testing"

func TestParseSplitsSectionsIntoOptions(t *testing.T) {
	doc := []byte(`
mxf:
  trace: true
  max_backups: 3
pipeline:
  out_format: cc-data
  settle: 500ms
`)
	sections, err := Parse(doc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	mxf, ok := sections["mxf"]
	if !ok {
		t.Fatal("missing mxf section")
	}
	if v, ok := mxf.Bool("trace"); !ok || !v {
		t.Fatalf("mxf.trace = %v, %v, want true, true", v, ok)
	}
	if v, ok := mxf.Int("max_backups"); !ok || v != 3 {
		t.Fatalf("mxf.max_backups = %v, %v, want 3, true", v, ok)
	}

	pipeline, ok := sections["pipeline"]
	if !ok {
		t.Fatal("missing pipeline section")
	}
	if v, ok := pipeline.String("out_format"); !ok || v != "cc-data" {
		t.Fatalf("pipeline.out_format = %q, %v, want cc-data, true", v, ok)
	}
	if v, ok := pipeline.Duration("settle"); !ok || v.String() != "500ms" {
		t.Fatalf("pipeline.settle = %v, %v, want 500ms, true", v, ok)
	}
}

func TestAccessorsReturnOkFalseOnMissingOrWrongType(t *testing.T) {
	o := Options{"name": "widget"}
	if _, ok := o.Int("name"); ok {
		t.Fatal("Int should fail on a string value")
	}
	if _, ok := o.Bool("missing"); ok {
		t.Fatal("Bool should fail on a missing key")
	}
}

func TestOrHelpersFallBackOnMissing(t *testing.T) {
	o := Options{}
	if got := o.IntOr("n", 7); got != 7 {
		t.Fatalf("IntOr = %d, want 7", got)
	}
	if got := o.StringOr("s", "default"); got != "default" {
		t.Fatalf("StringOr = %q, want default", got)
	}
	if got := o.BoolOr("b", true); got != true {
		t.Fatalf("BoolOr = %v, want true", got)
	}
}

func TestEnvOrFallsBackWhenUnset(t *testing.T) {
	t.Setenv("CONFIG_TEST_UNSET_VAR", "")
	if got := EnvOr("CONFIG_TEST_UNSET_VAR", "fallback"); got != "fallback" {
		t.Fatalf("EnvOr = %q, want fallback", got)
	}
	t.Setenv("CONFIG_TEST_SET_VAR", "value")
	if got := EnvOr("CONFIG_TEST_SET_VAR", "fallback"); got != "value" {
		t.Fatalf("EnvOr = %q, want value", got)
	}
}
