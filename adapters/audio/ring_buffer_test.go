package audio

import "testing"

func TestRingBuffer_Add(t *testing.T) {
	t.Run("keeps the most recent samples once it loops", func(t *testing.T) {
		rb := newRingBuffer(10)

		for i := 0; i < 20; i++ {
			rb.Add([]int16{int16(i)})
		}

		expected := []int16{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}
		actual := rb.Read()

		if len(actual) != len(expected) {
			t.Fatalf("expected %d samples, got %d", len(expected), len(actual))
		}
		for i := range expected {
			if expected[i] != actual[i] {
				t.Errorf("expected %d, got %d", expected[i], actual[i])
			}
		}
	})

	t.Run("returns only what was written before wrap", func(t *testing.T) {
		rb := newRingBuffer(10)
		rb.Add([]int16{1, 2, 3})

		actual := rb.Read()
		if len(actual) != 3 {
			t.Fatalf("expected 3 samples, got %d", len(actual))
		}
		for i, want := range []int16{1, 2, 3} {
			if actual[i] != want {
				t.Errorf("expected %d, got %d", want, actual[i])
			}
		}
	})
}
