package engine

import (
	"context"
	"testing"
)

func TestRodEngine_ForceStealth(t *testing.T) {
	var sawStealth bool
	render := func(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
		sawStealth = req.Stealth
		return &FetchResult{HTML: "<html></html>", FinalURL: req.URL}, nil
	}

	req := &FetchRequest{URL: "https://example.com/"}
	res, err := NewRodEngine(render, true).Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sawStealth {
		t.Error("stealth engine should force Stealth")
	}
	if req.Stealth {
		t.Error("caller's request must not be mutated")
	}
	if res.EngineName != NameRodStealth {
		t.Errorf("EngineName = %q, want %q", res.EngineName, NameRodStealth)
	}
}

func TestRodEngine_NoRender(t *testing.T) {
	if _, err := NewRodEngine(nil, false).Fetch(context.Background(), &FetchRequest{}); err == nil {
		t.Error("expected error without render func")
	}
}
