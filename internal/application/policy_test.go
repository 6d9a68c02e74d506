package application

import (
	"errors"
	"go/ast"
	"go/parser"
	"go/token"
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCompileTimePolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		factors TimeFactors
		want    []string
	}{
		{
			name:    "mixed severities in fixed order",
			factors: TimeFactors{Morning: 2, Worktime: 5, Evening: 8, BeforeBed: 10},
			want: []string{
				"During work hours: The user wants to reduce their usage during this period.",
				"After work and in the evening: The user should only use the apps for a good or meaningful reason.",
				"During the late evening before sleep: Usage should generally not be allowed at this time. Only Emergencies.",
			},
		},
		{
			name:    "all silent",
			factors: TimeFactors{Morning: 0, Worktime: 3, Evening: 1, BeforeBed: 2},
			want:    nil,
		},
		{
			name:    "out of range values ignored",
			factors: TimeFactors{Morning: -1, Worktime: 11, Evening: 4, BeforeBed: 100},
			want:    []string{"After work and in the evening: The user wants to reduce their usage during this period."},
		},
		{
			name:    "bucket edges",
			factors: TimeFactors{Morning: 4, Worktime: 6, Evening: 7, BeforeBed: 9},
			want: []string{
				"In the morning hours after waking up: The user wants to reduce their usage during this period.",
				"During work hours: The user wants to reduce their usage during this period.",
				"After work and in the evening: The user should only use the apps for a good or meaningful reason.",
				"During the late evening before sleep: Usage should generally not be allowed at this time. Only Emergencies.",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompileTimePolicy(tt.factors)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("CompileTimePolicy mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderTimePolicy(t *testing.T) {
	t.Parallel()

	if got := RenderTimePolicy(nil); got != "" {
		t.Fatalf("expected empty text for no statements, got %q", got)
	}

	got := RenderTimePolicy([]string{"a", "b"})
	if got != timePolicyHeading+"\na\nb" {
		t.Fatalf("unexpected rendering %q", got)
	}
}

func TestNormalizeUsage(t *testing.T) {
	t.Parallel()

	samples := []UsageSample{
		{PackageName: "com.instagram.android", TotalMinutes: 45},
		{PackageName: "com.spotify.music", TotalMinutes: 10},
	}
	got := NormalizeUsage(samples, []string{"instagram", "tiktok"})
	if got != "App: instagram - used time: 45 min" {
		t.Fatalf("unexpected usage text %q", got)
	}

	t.Run("case insensitive and many to one", func(t *testing.T) {
		samples := []UsageSample{
			{PackageName: "com.zhiliaoapp.musically.TikTok", TotalMinutes: 3},
			{PackageName: "com.ss.android.TIKTOK.lite", TotalMinutes: 7},
		}
		got := NormalizeUsage(samples, []string{"TikTok"})
		want := "App: TikTok - used time: 3 min\nApp: TikTok - used time: 7 min"
		if got != want {
			t.Fatalf("got %q, want %q", got, want)
		}
	})

	t.Run("sentinel when nothing matches", func(t *testing.T) {
		if got := NormalizeUsage(samples, []string{"reddit"}); got != NoUsageSentinel {
			t.Fatalf("expected sentinel, got %q", got)
		}
		if got := NormalizeUsage(nil, nil); got != NoUsageSentinel {
			t.Fatalf("expected sentinel for empty input, got %q", got)
		}
	})

	t.Run("blank tracked names match nothing", func(t *testing.T) {
		if got := NormalizeUsage(samples, []string{"  "}); got != NoUsageSentinel {
			t.Fatalf("expected sentinel, got %q", got)
		}
	})
}

func TestParsePersonality(t *testing.T) {
	t.Parallel()

	for _, p := range Personalities() {
		got, err := ParsePersonality(strings.ToUpper(p.String()))
		if err != nil {
			t.Fatalf("ParsePersonality(%q) failed: %v", p, err)
		}
		if got != p {
			t.Fatalf("ParsePersonality(%q) = %q", p, got)
		}
	}

	_, err := ParsePersonality("grumpy")
	if !errors.Is(err, ErrUnknownPersonality) || !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrUnknownPersonality, got %v", err)
	}

	if DefaultPersonality != PersonalityChill {
		t.Fatalf("expected chill baseline, got %q", DefaultPersonality)
	}
}

// declaredPersonalities returns the values of every constant declared with
// type Personality in personality.go.
func declaredPersonalities(t *testing.T) []string {
	t.Helper()

	file, err := parser.ParseFile(token.NewFileSet(), "personality.go", nil, 0)
	if err != nil {
		t.Fatalf("parse personality.go: %v", err)
	}
	var values []string
	for _, decl := range file.Decls {
		gen, ok := decl.(*ast.GenDecl)
		if !ok || gen.Tok != token.CONST {
			continue
		}
		for _, spec := range gen.Specs {
			vs := spec.(*ast.ValueSpec)
			ident, ok := vs.Type.(*ast.Ident)
			if !ok || ident.Name != "Personality" {
				continue
			}
			for _, v := range vs.Values {
				lit, ok := v.(*ast.BasicLit)
				if !ok || lit.Kind != token.STRING {
					continue
				}
				s, err := strconv.Unquote(lit.Value)
				if err != nil {
					t.Fatalf("unquote %s: %v", lit.Value, err)
				}
				values = append(values, s)
			}
		}
	}
	sort.Strings(values)
	return values
}

func TestPersonalityRegistryIsExhaustive(t *testing.T) {
	t.Parallel()

	var registered []string
	for _, p := range Personalities() {
		if p.Profile() == "" {
			t.Errorf("personality %q is registered but Profile has no case for it", p)
		}
		registered = append(registered, p.String())
	}
	sort.Strings(registered)

	declared := declaredPersonalities(t)
	if len(declared) == 0 {
		t.Fatal("found no Personality constants in personality.go")
	}
	if diff := cmp.Diff(declared, registered); diff != "" {
		t.Fatalf("Personalities() does not list every declared constant (-declared +registered):\n%s", diff)
	}
	for _, key := range declared {
		if Personality(key).Profile() == "" {
			t.Errorf("constant %q has no Profile case", key)
		}
	}
}
