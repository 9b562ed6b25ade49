package resolve

import (
	"strings"
	"testing"

	"github.com/unused-finder/monorepo-core/internal/dircache"
)

type notExistErr struct{}

func (notExistErr) Error() string    { return "no such file or directory" }
func (notExistErr) IsNotExist() bool { return true }

func newFixture(files map[string]string) (*dircache.Cache, FileExists) {
	readFile := func(path string) ([]byte, error) {
		if content, ok := files[path]; ok {
			return []byte(content), nil
		}
		return nil, notExistErr{}
	}
	exists := func(path string) bool {
		_, ok := files[path]
		return ok
	}
	return dircache.New("/repo", readFile), exists
}

func TestResolveRelativeWithExtensionProbe(t *testing.T) {
	cache, exists := newFixture(map[string]string{
		"/repo/pkg/a.ts": "export const x = 1;",
	})
	r := New(cache, exists, "/repo", "/repo/node_modules")

	got := r.Resolve("/repo/pkg", "./a")
	if !got.Ok || got.Path != "/repo/pkg/a.ts" {
		t.Errorf("Resolve(./a) = %+v", got)
	}
}

func TestResolveRelativeIndexFile(t *testing.T) {
	cache, exists := newFixture(map[string]string{
		"/repo/pkg/feature/index.ts": "export const x = 1;",
	})
	r := New(cache, exists, "/repo", "/repo/node_modules")

	got := r.Resolve("/repo/pkg", "./feature")
	if !got.Ok || got.Path != "/repo/pkg/feature/index.ts" {
		t.Errorf("Resolve(./feature) = %+v", got)
	}
}

func TestResolveNodeBuiltinIsExternal(t *testing.T) {
	cache, exists := newFixture(map[string]string{})
	r := New(cache, exists, "/repo", "/repo/node_modules")

	got := r.Resolve("/repo/pkg", "node:fs")
	if !got.Ok || !got.External {
		t.Errorf("Resolve(node:fs) = %+v, want external", got)
	}
}

func TestResolveUnresolvableBareSpecifierIsExternal(t *testing.T) {
	cache, exists := newFixture(map[string]string{})
	r := New(cache, exists, "/repo", "/repo/node_modules")

	got := r.Resolve("/repo/pkg", "left-pad")
	if !got.Ok || !got.External {
		t.Errorf("Resolve(left-pad) = %+v, want external", got)
	}
}

func TestResolveTsconfigPathAlias(t *testing.T) {
	cache, exists := newFixture(map[string]string{
		"/repo/pkg/tsconfig.json": `{"compilerOptions": {"baseUrl": ".", "paths": {"@app/*": ["./src/*"]}}}`,
		"/repo/pkg/src/widget.ts": "export const Widget = 1;",
	})
	r := New(cache, exists, "/repo", "/repo/node_modules")

	got := r.Resolve("/repo/pkg", "@app/widget")
	if !got.Ok || got.Path != "/repo/pkg/src/widget.ts" {
		t.Errorf("Resolve(@app/widget) = %+v", got)
	}
}

func TestResolveWorkspacePackageViaExportsMap(t *testing.T) {
	cache, exists := newFixture(map[string]string{
		"/repo/node_modules/@scope/lib/package.json": `{
			"name": "@scope/lib",
			"exports": {".": "./dist/index.js", "./feature": "./dist/feature.js"}
		}`,
		"/repo/node_modules/@scope/lib/dist/index.js":   "module.exports = {};",
		"/repo/node_modules/@scope/lib/dist/feature.js": "module.exports = {};",
	})
	r := New(cache, exists, "/repo", "/repo/node_modules")

	got := r.Resolve("/repo/pkg", "@scope/lib")
	if !got.Ok || got.Path != "/repo/node_modules/@scope/lib/dist/index.js" {
		t.Errorf("Resolve(@scope/lib) = %+v", got)
	}

	gotFeature := r.Resolve("/repo/pkg", "@scope/lib/feature")
	if !gotFeature.Ok || !strings.HasSuffix(gotFeature.Path, "dist/feature.js") {
		t.Errorf("Resolve(@scope/lib/feature) = %+v", gotFeature)
	}
}

func TestResolveUnresolvedRelativePath(t *testing.T) {
	cache, exists := newFixture(map[string]string{})
	r := New(cache, exists, "/repo", "/repo/node_modules")

	got := r.Resolve("/repo/pkg", "./missing")
	if got.Ok {
		t.Errorf("Resolve(./missing) = %+v, want unresolved", got)
	}
}
