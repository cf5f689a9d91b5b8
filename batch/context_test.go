package batch

import (
	"context"
	"testing"
)

func TestFromContext_NoScope(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("FromContext found a coordinator in a bare context")
	}
	if _, ok := FromContext(nil); ok {
		t.Error("FromContext found a coordinator in a nil context")
	}
}

func TestScope_NestingShadowsAndRestores(t *testing.T) {
	tr := &mockTransport{}

	outerCtx, outerScope := Enter(context.Background(), tr, testConfig())
	defer outerScope.Exit()
	innerCtx, innerScope := Enter(outerCtx, tr, testConfig())

	if c, ok := FromContext(innerCtx); !ok || c != innerScope.Coordinator() {
		t.Fatal("inner context does not resolve the inner coordinator")
	}
	// The outer binding is untouched, just shadowed.
	if c, ok := FromContext(outerCtx); !ok || c != outerScope.Coordinator() {
		t.Fatal("outer context does not resolve the outer coordinator")
	}

	innerScope.Exit()

	// The closed inner coordinator becomes unreachable; the outer
	// binding is restored by using the outer context again.
	if _, ok := FromContext(innerCtx); ok {
		t.Error("inner context still resolves an exited coordinator")
	}
	if c, ok := FromContext(outerCtx); !ok || c != outerScope.Coordinator() {
		t.Error("outer coordinator lost after inner scope exit")
	}
}

func TestFromContext_DispatchGuard(t *testing.T) {
	tr := &mockTransport{}
	ctx, scope := Enter(context.Background(), tr, testConfig())
	defer scope.Exit()

	if _, ok := FromContext(ctx); !ok {
		t.Fatal("FromContext missed the active scope")
	}
	if _, ok := FromContext(withDispatch(ctx)); ok {
		t.Error("a call inside batch dispatch would be captured again")
	}
}

func TestFromContext_SiblingIsolation(t *testing.T) {
	tr := &mockTransport{}
	root := context.Background()

	ctxA, scopeA := Enter(root, tr, testConfig())
	defer scopeA.Exit()
	ctxB, scopeB := Enter(root, tr, testConfig())
	defer scopeB.Exit()

	if c, _ := FromContext(ctxA); c != scopeA.Coordinator() {
		t.Error("tree A does not see its own coordinator")
	}
	if c, _ := FromContext(ctxB); c != scopeB.Coordinator() {
		t.Error("tree B does not see its own coordinator")
	}
	if _, ok := FromContext(root); ok {
		t.Error("root context sees a sibling's coordinator")
	}
}
