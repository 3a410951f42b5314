package browser

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type foreignHandle struct{}

func (foreignHandle) Locator() Locator { return Locator{Selector: "#x"} }

// detachedSession has no browser behind it, so every action fails fast
func detachedSession(t *testing.T) *chromeSession {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return &chromeSession{ctx: ctx, cancel: cancel, navTimeout: time.Second}
}

func TestCallOnNode_RejectsForeignHandle(t *testing.T) {
	s := detachedSession(t)
	ctx := context.Background()

	assert.Error(t, s.callOnNode(ctx, foreignHandle{}, clickJS, nil))
	assert.Error(t, s.callOnNode(ctx, &chromeHandle{loc: Locator{Selector: "#x"}}, clickJS, nil))
	assert.Equal(t, NotFound, s.Click(ctx, foreignHandle{}))
	assert.Equal(t, NotFound, s.ScrollIntoView(ctx, foreignHandle{}))
}

func TestCallOnNode_WithoutBrowserReportsNotFound(t *testing.T) {
	s := detachedSession(t)
	ctx := context.Background()
	h := &chromeHandle{loc: Locator{Selector: "#more"}, node: &cdp.Node{BackendNodeID: 7}}

	require.Error(t, s.callOnNode(ctx, h, scrollJS, nil))
	assert.Equal(t, NotFound, s.Click(ctx, h))
	assert.Equal(t, NotFound, s.ScrollIntoView(ctx, h))
}

func TestCallFunctionOnNode_BuildsAction(t *testing.T) {
	var res string
	assert.NotNil(t, callFunctionOnNode(&cdp.Node{BackendNodeID: 7}, clickJS, &res))
}

func TestMayCarryPayload(t *testing.T) {
	for _, m := range []string{
		"application/json",
		"application/vnd.api+json; charset=utf-8",
		"text/plain",
		"text/x-component",
		"TEXT/HTML",
	} {
		assert.True(t, mayCarryPayload(m), m)
	}
	for _, m := range []string{"image/png", "font/woff2", "application/octet-stream", ""} {
		assert.False(t, mayCarryPayload(m), m)
	}
}
