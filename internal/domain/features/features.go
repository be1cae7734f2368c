// Package features builds the fixed, ordered feature vector consumed by the
// classifier from a canonical record or a stored feature row.
package features

import (
	"math"

	"github.com/futurisys/attrition/internal/domain/record"
)

// Derived feature names. These are computed, never supplied by clients.
const (
	ColSeniorityLog       = "anciennete_log"
	ColTotalExperienceLog = "annee_experience_totale_log"
)

// Columns is the exact ordered set of feature names the model consumes.
// Each vector carries all of them; absent values are explicit nils.
var Columns = []string{
	"frequence_deplacement",
	"genre",
	"statut_marital",
	"departement",
	"poste",
	"heure_supplementaires",
	"domaine_etude",
	"age",
	"nombre_experiences_precedentes",
	"annees_dans_le_poste_actuel",
	"satisfaction_employee_environnement",
	"note_evaluation_precedente",
	"niveau_hierarchique_poste",
	"satisfaction_employee_nature_travail",
	"satisfaction_employee_equipe",
	"satisfaction_employee_equilibre_pro_perso",
	"note_evaluation_actuelle",
	"augementation_salaire_precedente",
	"nombre_participation_pee",
	"nb_formations_suivies",
	"distance_domicile_travail",
	"niveau_education",
	"annees_depuis_la_derniere_promotion",
	"annes_sous_responsable_actuel",
	ColSeniorityLog,
	ColTotalExperienceLog,
}

// Vector maps every column in Columns to nil, a float64 or a string.
type Vector map[string]any

// Number returns the numeric value for col, or (0, false) when null.
func (v Vector) Number(col string) (float64, bool) {
	f, ok := v[col].(float64)
	return f, ok
}

// Category returns the categorical value for col, or ("", false) when null.
func (v Vector) Category(col string) (string, bool) {
	s, ok := v[col].(string)
	return s, ok
}

// FromRecord projects a validated canonical record onto Columns, deriving the
// two log features from their source fields. Deterministic and side-effect
// free.
func FromRecord(c *record.Canonical) Vector {
	v := make(Vector, len(Columns))
	for _, col := range Columns {
		v[col] = nil
	}

	for _, f := range record.NumericFields {
		if p := c.Numeric(f); p != nil {
			v[f] = *p
		}
	}
	for _, f := range append(append([]string{}, record.NominalFields...), record.OrdinalFields...) {
		if p := c.Text(f); p != nil {
			v[f] = *p
		}
	}

	v[ColSeniorityLog] = logOrNil(c.AnneesDansLEntreprise)
	v[ColTotalExperienceLog] = logOrNil(c.AnneeExperienceTotale)
	return v
}

// FromStored projects a stored feature row onto Columns. The row already
// carries the two log columns, so no derivation happens here, but text
// values go through the same trim/upper-case/yes-no rules as client input.
// Unrecognized overtime values in stored rows pass through upper-cased
// rather than failing: the row predates this service and is read-only.
func FromStored(s *record.Stored) Vector {
	v := make(Vector, len(Columns))
	for _, col := range Columns {
		v[col] = nil
	}

	for _, f := range record.NumericFields {
		if p := s.Numeric(f); p != nil {
			v[f] = *p
		}
	}
	v[ColSeniorityLog] = floatOrNil(s.AncienneteLog)
	v[ColTotalExperienceLog] = floatOrNil(s.AnneeExperienceTotaleLog)

	for _, f := range append(append([]string{}, record.NominalFields...), record.OrdinalFields...) {
		p := s.Text(f)
		if p == nil {
			continue
		}
		norm := record.NormalizeText(*p)
		if norm == nil {
			continue
		}
		if f == record.FieldOvertime {
			if yn, err := record.NormalizeYesNo(*norm); err == nil && yn != nil {
				norm = yn
			}
		}
		v[f] = *norm
	}
	return v
}

// logOrNil returns ln(x) for strictly positive sources, nil otherwise.
func logOrNil(p *float64) any {
	if p == nil || *p <= 0 {
		return nil
	}
	return math.Log(*p)
}

func floatOrNil(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
