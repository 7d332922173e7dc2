package nluconfig

import "testing"

func TestListLanguages(t *testing.T) {
	langs, err := ListLanguages("testdata")
	if err != nil {
		t.Fatalf("ListLanguages() error = %v", err)
	}
	if len(langs) != 1 || langs[0] != "en-US" {
		t.Errorf("ListLanguages() = %v, want [en-US]", langs)
	}
}

func TestLoadIntents(t *testing.T) {
	data, err := LoadIntents([]string{"en-US"}, "testdata")
	if err != nil {
		t.Fatalf("LoadIntents() error = %v", err)
	}
	if len(data) != 1 {
		t.Fatalf("LoadIntents() returned %d entries, want 1", len(data))
	}

	d := data[0]
	if d.Language != "en-US" {
		t.Errorf("Language = %q, want en-US", d.Language)
	}
	if len(d.Intents) != 1 || d.Intents[0].Name != "get_weather" {
		t.Fatalf("Intents = %+v", d.Intents)
	}
	if len(d.Intents[0].Utterances) != 2 {
		t.Errorf("Utterances = %v", d.Intents[0].Utterances)
	}
	if len(d.Intents[0].Slots) != 1 || d.Intents[0].Slots[0].Entity != "place" {
		t.Errorf("Slots = %+v", d.Intents[0].Slots)
	}
	if len(d.Entities) != 1 || d.Entities[0].Name != "place" {
		t.Fatalf("Entities = %+v", d.Entities)
	}
	if len(d.Entities[0].Data) != 2 {
		t.Errorf("Entity data = %+v", d.Entities[0].Data)
	}
}

func TestLoadIntentsSkipsLanguagesNotRequested(t *testing.T) {
	data, err := LoadIntents([]string{"fr-FR"}, "testdata")
	if err != nil {
		t.Fatalf("LoadIntents() error = %v", err)
	}
	if len(data) != 0 {
		t.Errorf("LoadIntents() = %+v, want none for an unrequested language", data)
	}
}
