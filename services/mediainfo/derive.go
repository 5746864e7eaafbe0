package mediainfo

import (
	"fmt"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"finview/models"
)

// peopleByType filters credited people by role tag, preserving source order.
// A nil person list yields an empty slice, never a fault.
func peopleByType(people []models.Person, t models.PersonType) []models.Person {
	out := []models.Person{}
	for _, p := range people {
		if p.Type == t {
			out = append(out, p)
		}
	}
	return out
}

// castLists holds the cast/crew sublists derived from an item's person list.
type castLists struct {
	actors    []models.Person
	directors []models.Person
	writers   []models.Person
}

// deriveCast splits the person list into actor/director/writer sublists.
// The three filters run on a shared worker pool so a long people list never
// stalls the load path.
func deriveCast(people []models.Person) castLists {
	var lists castLists

	p := pool.New()
	p.Go(func() { lists.actors = peopleByType(people, models.PersonTypeActor) })
	p.Go(func() { lists.directors = peopleByType(people, models.PersonTypeDirector) })
	p.Go(func() { lists.writers = peopleByType(people, models.PersonTypeWriter) })
	p.Wait()

	return lists
}

// genresLine joins genres into a single display string.
func genresLine(genres []string) string {
	return strings.Join(genres, ", ")
}

// runTimeString renders runtime ticks as whole minutes.
func runTimeString(ticks int64) string {
	if ticks <= 0 {
		return ""
	}
	return fmt.Sprintf("%d min", ticks/models.TicksPerMinute)
}

const statusContinuing = "Continuing"

// dateRangeString renders the production date range for display.
// Continuing series show "Y - Present"; a single known boundary shows that
// year alone; equal boundaries collapse to one year.
func dateRangeString(productionYear, endYear int, status string) string {
	if status == statusContinuing {
		if productionYear == 0 {
			return ""
		}
		return fmt.Sprintf("%d - Present", productionYear)
	}

	switch {
	case productionYear == 0 && endYear == 0:
		return ""
	case productionYear == 0:
		return fmt.Sprintf("%d", endYear)
	case endYear == 0 || endYear == productionYear:
		return fmt.Sprintf("%d", productionYear)
	default:
		return fmt.Sprintf("%d - %d", productionYear, endYear)
	}
}
