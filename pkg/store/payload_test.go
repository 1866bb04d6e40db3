package store

import "testing"

type rating struct {
	MovieID uint    `json:"movie_id"`
	Rating  float64 `json:"rating"`
}

func TestDecodePayload(t *testing.T) {
	t.Run("Typed", func(t *testing.T) {
		got, err := DecodePayload[rating](Action{Type: "R", Payload: rating{MovieID: 1, Rating: 4}})
		if err != nil || got.MovieID != 1 {
			t.Errorf("got %+v, %v", got, err)
		}
	})

	t.Run("Pointer", func(t *testing.T) {
		got, err := DecodePayload[rating](Action{Type: "R", Payload: &rating{MovieID: 2}})
		if err != nil || got.MovieID != 2 {
			t.Errorf("got %+v, %v", got, err)
		}
	})

	t.Run("DecodedJSON", func(t *testing.T) {
		payload := map[string]any{"movie_id": float64(318), "rating": 4.5}
		got, err := DecodePayload[rating](Action{Type: "R", Payload: payload})
		if err != nil {
			t.Fatalf("DecodePayload: %v", err)
		}
		if got.MovieID != 318 || got.Rating != 4.5 {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		if _, err := DecodePayload[rating](Action{Type: "R"}); err == nil {
			t.Error("expected error for missing payload")
		}
	})

	t.Run("WrongShape", func(t *testing.T) {
		if _, err := DecodePayload[rating](Action{Type: "R", Payload: "nope"}); err == nil {
			t.Error("expected error for string payload")
		}
	})
}
