package engine

import (
	"context"
	"fmt"
)

// RenderFunc renders a page in the browser and returns its DOM. It is
// injected from main.go so that engine/ never imports scraper/.
type RenderFunc func(ctx context.Context, req *FetchRequest) (*FetchResult, error)

// RodEngine is a browser-based engine: the document it returns includes
// media elements inserted by scripts. The stealth variant always injects the
// anti-detection script.
type RodEngine struct {
	render       RenderFunc
	forceStealth bool
}

// NewRodEngine creates a RodEngine around render.
func NewRodEngine(render RenderFunc, forceStealth bool) *RodEngine {
	return &RodEngine{render: render, forceStealth: forceStealth}
}

func (e *RodEngine) Name() string {
	if e.forceStealth {
		return NameRodStealth
	}
	return NameRod
}

func (e *RodEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if e.render == nil {
		return nil, fmt.Errorf("%s: render func not configured", e.Name())
	}

	// Clone the request so we don't mutate the caller's copy.
	r := *req
	if e.forceStealth {
		r.Stealth = true
	}

	result, err := e.render(ctx, &r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name(), err)
	}

	result.EngineName = e.Name()
	return result, nil
}
