package scanner

import (
	"context"
	"testing"
)

func TestRegistryResolve(t *testing.T) {
	t.Parallel()

	reg := NewRegistry[string]()
	reg.Register(Func[string]{ID: "web_search", Fn: func(context.Context, Request) ([]string, error) {
		return []string{"hit"}, nil
	}})

	sc, err := reg.Resolve("web_search")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	got, err := sc.Scan(context.Background(), Request{Query: "Alex Example"})
	if err != nil || len(got) != 1 || got[0] != "hit" {
		t.Fatalf("unexpected scan result %v, %v", got, err)
	}

	if _, err := reg.Resolve("json_api"); err == nil {
		t.Fatalf("expected error for unknown scanner")
	}
	if names := reg.Names(); len(names) != 1 || names[0] != "web_search" {
		t.Fatalf("unexpected names %v", names)
	}
}

func TestRequestOption(t *testing.T) {
	t.Parallel()

	req := Request{Options: map[string]string{"results": "value", "empty": ""}}
	if got := req.Option("results", "articles"); got != "value" {
		t.Fatalf("got %q", got)
	}
	if got := req.Option("empty", "fallback"); got != "fallback" {
		t.Fatalf("got %q", got)
	}
	if got := req.Option("missing", "fallback"); got != "fallback" {
		t.Fatalf("got %q", got)
	}
}
