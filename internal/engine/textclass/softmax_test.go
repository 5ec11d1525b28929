package textclass

import (
	"math"
	"testing"
)

func TestSoftmaxSumsToOne(t *testing.T) {
	probs := softmax([]float32{1, 2, 3, 4})
	var sum float64
	for _, p := range probs {
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("sum = %f, want 1", sum)
	}
	if argmax(probs) != 3 {
		t.Errorf("argmax = %d, want 3", argmax(probs))
	}
}

func TestSoftmaxLargeLogits(t *testing.T) {
	probs := softmax([]float32{1000, 1000})
	for i, p := range probs {
		if math.IsNaN(p) || math.Abs(p-0.5) > 1e-9 {
			t.Errorf("probs[%d] = %f, want 0.5", i, p)
		}
	}
}

func TestSoftmaxEmpty(t *testing.T) {
	if softmax(nil) != nil {
		t.Error("expected nil for empty logits")
	}
}

func TestArgmaxTieGoesToFirst(t *testing.T) {
	if got := argmax([]float64{0.2, 0.4, 0.4}); got != 1 {
		t.Errorf("argmax = %d, want 1", got)
	}
}

func TestDecode(t *testing.T) {
	labels := []string{"LABEL_0", "LABEL_1", "LABEL_2"}
	logits := []float32{
		0, 5, 0, // row 0 -> LABEL_1
		3, 0, 0, // row 1 -> LABEL_0
	}
	preds := decode(logits, labels, []bool{false, true})
	if len(preds) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(preds))
	}
	if preds[0].Label != "LABEL_1" || preds[1].Label != "LABEL_0" {
		t.Errorf("labels = %s, %s", preds[0].Label, preds[1].Label)
	}
	if preds[0].Score <= 0.5 || preds[0].Score > 1 {
		t.Errorf("score = %f, want in (0.5, 1]", preds[0].Score)
	}
	if preds[0].Truncated || !preds[1].Truncated {
		t.Error("truncation flags not carried through")
	}
}
