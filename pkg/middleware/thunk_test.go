package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	perrors "github.com/consilium/popcorn/internal/errors"
	"github.com/consilium/popcorn/pkg/store"
)

func TestThunkRunsFunctions(t *testing.T) {
	s := newStore(t, Thunk())

	var sawCount int
	result, err := s.Dispatch(context.Background(), ThunkFunc(func(ctx context.Context, dispatch store.DispatchFunc, getState func() store.State) (any, error) {
		if _, err := dispatch(ctx, store.Action{Type: "INC"}); err != nil {
			return nil, err
		}
		sawCount, _ = store.Select[int](getState(), "count")
		return "done", nil
	}))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result != "done" {
		t.Errorf("result: got %v, want done", result)
	}
	if sawCount != 1 {
		t.Errorf("thunk saw count %d, want 1", sawCount)
	}
}

func TestThunkAcceptsUnnamedFunc(t *testing.T) {
	s := newStore(t, Thunk())

	fn := func(ctx context.Context, dispatch store.DispatchFunc, getState func() store.State) (any, error) {
		return dispatch(ctx, store.Action{Type: "SET", Payload: 9})
	}
	if _, err := s.Dispatch(context.Background(), fn); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if count(s) != 9 {
		t.Errorf("count: got %d, want 9", count(s))
	}
}

func TestThunkNested(t *testing.T) {
	s := newStore(t, Thunk())

	inner := ThunkFunc(func(ctx context.Context, dispatch store.DispatchFunc, _ func() store.State) (any, error) {
		return dispatch(ctx, store.Action{Type: "INC"})
	})
	outer := ThunkFunc(func(ctx context.Context, dispatch store.DispatchFunc, _ func() store.State) (any, error) {
		if _, err := dispatch(ctx, inner); err != nil {
			return nil, err
		}
		return dispatch(ctx, inner)
	})

	if _, err := s.Dispatch(context.Background(), outer); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if count(s) != 2 {
		t.Errorf("count: got %d, want 2", count(s))
	}
}

func TestThunkAsynchronousDispatch(t *testing.T) {
	s := newStore(t, Thunk())

	done := make(chan struct{})
	_, err := s.Dispatch(context.Background(), ThunkFunc(func(ctx context.Context, dispatch store.DispatchFunc, _ func() store.State) (any, error) {
		go func() {
			defer close(done)
			dispatch(context.Background(), store.Action{Type: "INC"})
		}()
		return nil, nil
	}))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("async dispatch did not finish")
	}
	if count(s) != 1 {
		t.Errorf("count: got %d, want 1", count(s))
	}
}

func TestThunkErrorPropagates(t *testing.T) {
	s := newStore(t, Thunk())
	want := errors.New("api down")

	_, err := s.Dispatch(context.Background(), ThunkFunc(func(context.Context, store.DispatchFunc, func() store.State) (any, error) {
		return nil, want
	}))
	if !errors.Is(err, want) {
		t.Errorf("got %v, want %v", err, want)
	}
}

func TestThunkPassesPlainActions(t *testing.T) {
	s := newStore(t, Thunk())

	if _, err := s.Dispatch(context.Background(), store.Action{Type: "INC"}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if count(s) != 1 {
		t.Errorf("count: got %d, want 1", count(s))
	}
	if _, err := s.Dispatch(context.Background(), 42); !perrors.HasCode(err, "E104") {
		t.Errorf("non-action: got %v, want E104", err)
	}
}

func TestWithoutThunkFunctionsAreRejected(t *testing.T) {
	s := newStore(t)

	_, err := s.Dispatch(context.Background(), ThunkFunc(func(context.Context, store.DispatchFunc, func() store.State) (any, error) {
		return nil, nil
	}))
	if !perrors.HasCode(err, "E104") {
		t.Errorf("got %v, want E104", err)
	}
}

func TestThunkExtraArgument(t *testing.T) {
	type client struct{ name string }
	s := newStore(t, Thunk(WithExtraArgument(&client{name: "api"})))

	var got any
	s.Dispatch(context.Background(), ThunkFunc(func(ctx context.Context, _ store.DispatchFunc, _ func() store.State) (any, error) {
		got = ExtraArgument(ctx)
		return nil, nil
	}))
	if c, ok := got.(*client); !ok || c.name != "api" {
		t.Errorf("ExtraArgument: got %v", got)
	}

	if ExtraArgument(context.Background()) != nil {
		t.Error("ExtraArgument without middleware should be nil")
	}
}

func TestIsThunk(t *testing.T) {
	if IsThunk(store.Action{Type: "X"}) {
		t.Error("Action is not a thunk")
	}
	if IsThunk(ThunkFunc(nil)) {
		t.Error("nil ThunkFunc is not runnable")
	}
	if !IsThunk(ThunkFunc(func(context.Context, store.DispatchFunc, func() store.State) (any, error) { return nil, nil })) {
		t.Error("ThunkFunc should be a thunk")
	}
}
