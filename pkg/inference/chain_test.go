package inference

import (
	"context"
	"errors"
	"testing"
)

func TestChainFallback(t *testing.T) {
	ctx := context.Background()

	failing := WithError(errors.New("provider 1 failed"))
	working := NewMock("PRODUCTIVE")

	chain, err := NewChain(failing, working)
	if err != nil {
		t.Fatalf("Failed to create chain: %v", err)
	}
	defer chain.Close()

	resp, err := chain.Vision(ctx, &VisionRequest{Image: testImage(4, 4)})
	if err != nil {
		t.Fatalf("Chain vision failed: %v", err)
	}
	if resp.Content != "PRODUCTIVE" {
		t.Errorf("Unexpected response: %s", resp.Content)
	}
	if failing.CallCount("Vision") != 1 || working.CallCount("Vision") != 1 {
		t.Errorf("calls = %d/%d, want 1/1", failing.CallCount("Vision"), working.CallCount("Vision"))
	}
}

func TestChainAllFail(t *testing.T) {
	ctx := context.Background()

	err1 := errors.New("provider 1 failed")
	err2 := errors.New("provider 2 failed")
	p1, p2 := WithError(err1), WithError(err2)

	chain, _ := NewChain(p1, p2)
	defer chain.Close()

	_, err := chain.Vision(ctx, &VisionRequest{Image: testImage(4, 4)})
	if err == nil {
		t.Fatal("Expected error when all providers fail")
	}

	var chainErr *ChainError
	if !errors.As(err, &chainErr) {
		t.Fatalf("Expected ChainError, got %T", err)
	}
	if len(chainErr.Errors) != 2 {
		t.Errorf("Expected 2 errors, got %d", len(chainErr.Errors))
	}
	if !errors.Is(err, err1) || !errors.Is(err, err2) {
		t.Errorf("chain error should wrap both failures: %v", err)
	}
}

func TestChainStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	first := WithError(errors.New("boom"))
	first.VisionFunc = func(ctx context.Context, req *VisionRequest) (*VisionResponse, error) {
		cancel()
		return nil, context.Canceled
	}
	second := NewMock("PRODUCTIVE")

	chain, _ := NewChain(first, second)
	_, err := chain.Vision(ctx, &VisionRequest{Image: testImage(4, 4)})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if second.CallCount("Vision") != 0 {
		t.Error("second provider should not be called after cancellation")
	}
}

func TestChainHealth(t *testing.T) {
	ctx := context.Background()

	healthy, _ := NewChain(WithError(errors.New("down")), NewMock(""))
	if err := healthy.Health(ctx); err != nil {
		t.Errorf("one healthy provider: %v", err)
	}

	down, _ := NewChain(WithError(errors.New("down")))
	if err := down.Health(ctx); err == nil {
		t.Error("expected error with no healthy providers")
	}
}

func TestChainClose(t *testing.T) {
	a, b := NewMock(""), NewMock("")
	chain, _ := NewChain(a, b)
	if err := chain.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !a.Closed() || !b.Closed() {
		t.Error("every provider should be closed")
	}
}

func TestNewChainEmpty(t *testing.T) {
	if _, err := NewChain(); !errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("err = %v, want ErrProviderUnavailable", err)
	}
}
