package mediainfo

import (
	"testing"

	"finview/models"
)

func TestDateRangeString(t *testing.T) {
	tests := []struct {
		name           string
		productionYear int
		endYear        int
		status         string
		want           string
	}{
		{"only start year", 1994, 0, "", "1994"},
		{"only end year", 0, 2001, "", "2001"},
		{"differing years", 1994, 2004, "", "1994 - 2004"},
		{"equal years", 2010, 2010, "", "2010"},
		{"continuing series", 2019, 0, "Continuing", "2019 - Present"},
		{"continuing without start", 0, 0, "Continuing", ""},
		{"nothing known", 0, 0, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dateRangeString(tt.productionYear, tt.endYear, tt.status)
			if got != tt.want {
				t.Errorf("dateRangeString(%d, %d, %q) = %q, want %q",
					tt.productionYear, tt.endYear, tt.status, got, tt.want)
			}
		})
	}
}

func TestRunTimeString(t *testing.T) {
	tests := []struct {
		ticks int64
		want  string
	}{
		{600_000_000, "1 min"},
		{600_000_000 * 142, "142 min"},
		{0, ""},
		{-5, ""},
	}

	for _, tt := range tests {
		if got := runTimeString(tt.ticks); got != tt.want {
			t.Errorf("runTimeString(%d) = %q, want %q", tt.ticks, got, tt.want)
		}
	}
}

func TestPeopleByType_PreservesOrder(t *testing.T) {
	people := []models.Person{
		{Name: "Alice", Type: models.PersonTypeActor},
		{Name: "Bob", Type: models.PersonTypeDirector},
		{Name: "Carol", Type: models.PersonTypeActor},
		{Name: "Dave", Type: models.PersonTypeWriter},
		{Name: "Eve", Type: models.PersonTypeActor},
	}

	actors := peopleByType(people, models.PersonTypeActor)
	if len(actors) != 3 {
		t.Fatalf("expected 3 actors, got %d", len(actors))
	}
	for i, want := range []string{"Alice", "Carol", "Eve"} {
		if actors[i].Name != want {
			t.Errorf("actor %d: got %q, want %q", i, actors[i].Name, want)
		}
	}
}

func TestPeopleByType_NilList(t *testing.T) {
	actors := peopleByType(nil, models.PersonTypeActor)
	if actors == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(actors) != 0 {
		t.Errorf("expected no actors, got %d", len(actors))
	}
}

func TestDeriveCast(t *testing.T) {
	people := []models.Person{
		{Name: "Alice", Type: models.PersonTypeActor},
		{Name: "Bob", Type: models.PersonTypeDirector},
		{Name: "Dave", Type: models.PersonTypeWriter},
		{Name: "Frank", Type: models.PersonTypeWriter},
	}

	lists := deriveCast(people)
	if len(lists.actors) != 1 || lists.actors[0].Name != "Alice" {
		t.Errorf("unexpected actors: %+v", lists.actors)
	}
	if len(lists.directors) != 1 || lists.directors[0].Name != "Bob" {
		t.Errorf("unexpected directors: %+v", lists.directors)
	}
	if len(lists.writers) != 2 {
		t.Errorf("expected 2 writers, got %d", len(lists.writers))
	}
}

func TestGenresLine(t *testing.T) {
	if got := genresLine([]string{"Drama", "Crime"}); got != "Drama, Crime" {
		t.Errorf("unexpected genres line: %q", got)
	}
	if got := genresLine(nil); got != "" {
		t.Errorf("expected empty line for nil genres, got %q", got)
	}
}
