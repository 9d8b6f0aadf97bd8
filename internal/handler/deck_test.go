package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"quizly/internal/contract"
	"quizly/internal/db"
	"quizly/internal/testutils"
)

func TestDeckLifecycle(t *testing.T) {
	e, _ := testutils.SetupHandlerDependencies(t)
	auth := testutils.AuthHelper(t, e, "decks@example.com", "some-password")

	createBody, _ := json.Marshal(contract.CreateDeckRequest{
		Title:       "Biology 101",
		Description: "Cell structure",
	})

	rec := testutils.PerformRequest(t, e, http.MethodPost, "/v1/decks", string(createBody), auth.Token, http.StatusCreated)
	deck := testutils.ParseResponse[db.Deck](t, rec)

	if deck.Title != "Biology 101" {
		t.Errorf("title = %q", deck.Title)
	}

	rec = testutils.PerformRequest(t, e, http.MethodGet, "/v1/decks", "", auth.Token, http.StatusOK)
	decks := testutils.ParseResponse[[]db.DeckWithCount](t, rec)
	if len(decks) != 1 {
		t.Fatalf("got %d decks, want 1", len(decks))
	}
	if decks[0].CardCount != 0 {
		t.Errorf("card count = %d, want 0", decks[0].CardCount)
	}

	updateBody, _ := json.Marshal(contract.UpdateDeckRequest{
		Title:       "Biology 102",
		Description: "Cell structure and function",
	})
	rec = testutils.PerformRequest(t, e, http.MethodPut, "/v1/decks/"+deck.ID, string(updateBody), auth.Token, http.StatusOK)
	updated := testutils.ParseResponse[db.Deck](t, rec)
	if updated.Title != "Biology 102" {
		t.Errorf("updated title = %q", updated.Title)
	}

	testutils.PerformRequest(t, e, http.MethodDelete, "/v1/decks/"+deck.ID, "", auth.Token, http.StatusNoContent)
	testutils.PerformRequest(t, e, http.MethodGet, "/v1/decks/"+deck.ID, "", auth.Token, http.StatusNotFound)
}

func TestDeckOwnershipEnforced(t *testing.T) {
	e, _ := testutils.SetupHandlerDependencies(t)
	owner := testutils.AuthHelper(t, e, "owner@example.com", "some-password")
	intruder := testutils.AuthHelper(t, e, "intruder@example.com", "some-password")

	createBody, _ := json.Marshal(contract.CreateDeckRequest{Title: "Private deck"})
	rec := testutils.PerformRequest(t, e, http.MethodPost, "/v1/decks", string(createBody), owner.Token, http.StatusCreated)
	deck := testutils.ParseResponse[db.Deck](t, rec)

	testutils.PerformRequest(t, e, http.MethodGet, "/v1/decks/"+deck.ID, "", intruder.Token, http.StatusForbidden)
	testutils.PerformRequest(t, e, http.MethodDelete, "/v1/decks/"+deck.ID, "", intruder.Token, http.StatusForbidden)
}

func TestFolderLifecycleAndDeckDetach(t *testing.T) {
	e, _ := testutils.SetupHandlerDependencies(t)
	auth := testutils.AuthHelper(t, e, "folders@example.com", "some-password")

	folderBody, _ := json.Marshal(contract.CreateFolderRequest{Name: "Semester 1"})
	rec := testutils.PerformRequest(t, e, http.MethodPost, "/v1/folders", string(folderBody), auth.Token, http.StatusCreated)
	folder := testutils.ParseResponse[db.Folder](t, rec)

	deckBody, _ := json.Marshal(contract.CreateDeckRequest{
		Title:    "Chemistry",
		FolderID: &folder.ID,
	})
	rec = testutils.PerformRequest(t, e, http.MethodPost, "/v1/decks", string(deckBody), auth.Token, http.StatusCreated)
	deck := testutils.ParseResponse[db.Deck](t, rec)
	if deck.FolderID == nil || *deck.FolderID != folder.ID {
		t.Fatal("deck not attached to folder")
	}

	// Deleting the folder detaches its decks instead of deleting them.
	testutils.PerformRequest(t, e, http.MethodDelete, "/v1/folders/"+folder.ID, "", auth.Token, http.StatusNoContent)

	rec = testutils.PerformRequest(t, e, http.MethodGet, "/v1/decks/"+deck.ID, "", auth.Token, http.StatusOK)
	survived := testutils.ParseResponse[db.Deck](t, rec)
	if survived.FolderID != nil {
		t.Error("deck should be detached after folder deletion")
	}
}

func TestFlashcardCRUD(t *testing.T) {
	e, _ := testutils.SetupHandlerDependencies(t)
	auth := testutils.AuthHelper(t, e, "cards@example.com", "some-password")

	deckBody, _ := json.Marshal(contract.CreateDeckRequest{Title: "Physics"})
	rec := testutils.PerformRequest(t, e, http.MethodPost, "/v1/decks", string(deckBody), auth.Token, http.StatusCreated)
	deck := testutils.ParseResponse[db.Deck](t, rec)

	correctIndex := 2
	cardBody, _ := json.Marshal(contract.CreateFlashcardRequest{
		Question:     "Which unit measures force?",
		Answer:       "Newton",
		Difficulty:   "easy",
		QuestionType: "mcq",
		Options:      []string{"Joule", "Watt", "Newton", "Pascal"},
		CorrectIndex: &correctIndex,
	})

	rec = testutils.PerformRequest(t, e, http.MethodPost, fmt.Sprintf("/v1/decks/%s/cards", deck.ID), string(cardBody), auth.Token, http.StatusCreated)
	card := testutils.ParseResponse[db.Flashcard](t, rec)

	if card.QuestionType != db.QuestionTypeMCQ {
		t.Errorf("question type = %q", card.QuestionType)
	}
	if len(card.Options) != 4 || *card.CorrectIndex != 2 {
		t.Error("options not persisted")
	}

	rec = testutils.PerformRequest(t, e, http.MethodGet, fmt.Sprintf("/v1/decks/%s/cards", deck.ID), "", auth.Token, http.StatusOK)
	cards := testutils.ParseResponse[[]db.Flashcard](t, rec)
	if len(cards) != 1 {
		t.Fatalf("got %d cards, want 1", len(cards))
	}

	testutils.PerformRequest(t, e, http.MethodDelete, "/v1/cards/"+card.ID, "", auth.Token, http.StatusNoContent)
	testutils.PerformRequest(t, e, http.MethodGet, "/v1/cards/"+card.ID, "", auth.Token, http.StatusNotFound)
}

func TestFlashcardShapeValidation(t *testing.T) {
	e, _ := testutils.SetupHandlerDependencies(t)
	auth := testutils.AuthHelper(t, e, "shapes@example.com", "some-password")

	deckBody, _ := json.Marshal(contract.CreateDeckRequest{Title: "Validation"})
	rec := testutils.PerformRequest(t, e, http.MethodPost, "/v1/decks", string(deckBody), auth.Token, http.StatusCreated)
	deck := testutils.ParseResponse[db.Deck](t, rec)

	// MCQ with only two options must be rejected.
	idx := 0
	badMCQ, _ := json.Marshal(contract.CreateFlashcardRequest{
		Question:     "Pick one",
		Answer:       "a",
		QuestionType: "mcq",
		Options:      []string{"a", "b"},
		CorrectIndex: &idx,
	})
	testutils.PerformRequest(t, e, http.MethodPost, fmt.Sprintf("/v1/decks/%s/cards", deck.ID), string(badMCQ), auth.Token, http.StatusBadRequest)

	// Free-response card with options must be rejected.
	badFree, _ := json.Marshal(contract.CreateFlashcardRequest{
		Question:     "Explain gravity",
		Answer:       "Mass attracts mass",
		QuestionType: "free_response",
		Options:      []string{"a", "b"},
	})
	testutils.PerformRequest(t, e, http.MethodPost, fmt.Sprintf("/v1/decks/%s/cards", deck.ID), string(badFree), auth.Token, http.StatusBadRequest)
}
