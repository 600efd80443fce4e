package ensemble

import (
	"strings"
	"sync"
	"testing"

	"rebias/internal/mat"
)

func TestHandleWithoutReducer(t *testing.T) {
	res := NewResources(nil)
	err := res.Handle().Reduce(mat.New(1, 3), mat.New(1, 3))
	if err == nil {
		t.Fatal("expected error from unwired resources")
	}
}

func TestHandleShapeMismatch(t *testing.T) {
	res := NewResources(func(send, recv *mat.Matrix) error { return nil })
	err := res.Handle().Reduce(mat.New(1, 3), mat.New(1, 4))
	if err == nil || !strings.Contains(err.Error(), "shape") {
		t.Fatalf("expected shape mismatch error, got %v", err)
	}
}

// The reduction contract is a plain SUM, not a mean: two replicas each
// contributing all-1.0 must combine to all-2.0. Nothing divides by the
// replica count, so a potential's effective force constant scales with
// ensemble size. This test pins that contract.
func TestLocalReduceSumContract(t *testing.T) {
	local, err := NewLocal(2)
	if err != nil {
		t.Fatalf("new local: %v", err)
	}

	results := make([][]float64, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for rank := 0; rank < 2; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			send := mat.FromSlice([]float64{1, 1, 1, 1})
			recv := mat.New(1, 4)
			errs[rank] = local.Reducer()(send, recv)
			results[rank] = recv.Data()
		}(rank)
	}
	wg.Wait()

	for rank := 0; rank < 2; rank++ {
		if errs[rank] != nil {
			t.Fatalf("rank %d reduce: %v", rank, errs[rank])
		}
		for i, v := range results[rank] {
			if v != 2.0 {
				t.Fatalf("rank %d bin %d: expected sum 2.0, got %f", rank, i, v)
			}
		}
	}
}

func TestLocalReduceMultipleRounds(t *testing.T) {
	const replicas = 3
	const rounds = 5

	local, err := NewLocal(replicas)
	if err != nil {
		t.Fatalf("new local: %v", err)
	}

	var wg sync.WaitGroup
	errCh := make(chan error, replicas)
	for rank := 0; rank < replicas; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			reduce := local.Reducer()
			for round := 0; round < rounds; round++ {
				send := mat.FromSlice([]float64{float64(round + 1)})
				recv := mat.New(1, 1)
				if err := reduce(send, recv); err != nil {
					errCh <- err
					return
				}
				want := float64(replicas * (round + 1))
				if recv.At(0, 0) != want {
					t.Errorf("rank %d round %d: expected %f, got %f", rank, round, want, recv.At(0, 0))
					return
				}
			}
		}(rank)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Fatalf("reduce: %v", err)
	}
}

func TestLocalReduceShapeDisagreementPoisons(t *testing.T) {
	local, err := NewLocal(2)
	if err != nil {
		t.Fatalf("new local: %v", err)
	}

	shapes := []int{3, 4}
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for rank := 0; rank < 2; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			errs[rank] = local.Reducer()(mat.New(1, shapes[rank]), mat.New(1, shapes[rank]))
		}(rank)
	}
	wg.Wait()

	if errs[0] == nil && errs[1] == nil {
		t.Fatal("expected at least one replica to fail on shape disagreement")
	}
	// After poisoning, every further use fails fast.
	if err := local.Reducer()(mat.New(1, 3), mat.New(1, 3)); err == nil {
		t.Fatal("expected poisoned collective to keep failing")
	}
}

func TestNewLocalRejectsNonPositive(t *testing.T) {
	if _, err := NewLocal(0); err == nil {
		t.Fatal("expected error for zero replicas")
	}
}
