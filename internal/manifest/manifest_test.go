package manifest

import "testing"

func TestLegacyPackageExportsEverything(t *testing.T) {
	m, err := Parse("/repo/pkg", []byte(`{"name": "pkg", "main": "./index.js"}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !m.IsAbspathExported("/repo/pkg/anything/deep.js") {
		t.Error("legacy package (no exports field) should export every path")
	}
}

func TestExportsFieldGatesPaths(t *testing.T) {
	m, err := Parse("/repo/pkg", []byte(`{
		"name": "pkg",
		"exports": {
			".": "./dist/index.js",
			"./feature": "./dist/feature.js"
		}
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !m.IsAbspathExported("/repo/pkg/dist/index.js") {
		t.Error("expected root export to be reachable")
	}
	if !m.IsAbspathExported("/repo/pkg/dist/feature.js") {
		t.Error("expected subpath export to be reachable")
	}
	if m.IsAbspathExported("/repo/pkg/dist/internal.js") {
		t.Error("expected non-exported file to be gated out")
	}
}

func TestExportsFieldWithConditions(t *testing.T) {
	m, err := Parse("/repo/pkg", []byte(`{
		"name": "pkg",
		"exports": {
			"require": "./dist/cjs/index.js",
			"import": "./dist/esm/index.js"
		}
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !m.IsAbspathExported("/repo/pkg/dist/cjs/index.js") {
		t.Error("expected require-condition leaf to be reachable")
	}
	if !m.IsAbspathExported("/repo/pkg/dist/esm/index.js") {
		t.Error("expected import-condition leaf to be reachable")
	}
}

func TestExportsFieldOutsidePackageDirRejected(t *testing.T) {
	m, err := Parse("/repo/pkg", []byte(`{"name": "pkg", "exports": {".": "./index.js"}}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if m.IsAbspathExported("/repo/other/index.js") {
		t.Error("expected a path outside the package directory to never be exported")
	}
}

func TestBrowserFieldStringRewritesMain(t *testing.T) {
	m, err := Parse("/repo/pkg", []byte(`{"name": "pkg", "main": "./index.js", "browser": "./browser.js"}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	target, ignored, matched := m.Browser.RewritePath(".")
	if !matched || ignored || target != "./browser.js" {
		t.Errorf("RewritePath(.) = (%q, %v, %v)", target, ignored, matched)
	}
}

func TestBrowserFieldObjectIgnoresModule(t *testing.T) {
	m, err := Parse("/repo/pkg", []byte(`{
		"name": "pkg",
		"browser": {
			"fs": false,
			"./server-only.js": false,
			"./client.js": "./client.browser.js"
		}
	}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, ignored, matched := m.Browser.RewriteModule("fs"); !matched || !ignored {
		t.Error("expected fs to be ignored under browser condition")
	}
	if _, ignored, matched := m.Browser.RewritePath("server-only.js"); !matched || !ignored {
		t.Error("expected server-only.js to be ignored under browser condition")
	}
	target, ignored, matched := m.Browser.RewritePath("client.js")
	if !matched || ignored || target != "./client.browser.js" {
		t.Errorf("RewritePath(client.js) = (%q, %v, %v)", target, ignored, matched)
	}
}

func TestMissingManifestIsNotAnError(t *testing.T) {
	m, err := Load("/repo/pkg", func(string) ([]byte, error) {
		return nil, notExistErr{}
	})
	if err != nil {
		t.Fatalf("Load: unexpected error %v", err)
	}
	if m != nil {
		t.Error("expected nil manifest for a missing package.json")
	}
}

type notExistErr struct{}

func (notExistErr) Error() string    { return "no such file or directory" }
func (notExistErr) IsNotExist() bool { return true }
