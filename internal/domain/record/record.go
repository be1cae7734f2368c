// Package record defines the canonical feature record and the closed-schema
// validation that produces it from raw client input.
package record

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Feature field names, grouped by family. The order inside each list is the
// order used when building the model input.
var (
	// NumericFields are client-suppliable numeric features.
	NumericFields = []string{
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
	}

	// DerivationFields feed the log-derived features and never reach the
	// model directly.
	DerivationFields = []string{
		"annees_dans_l_entreprise",
		"annee_experience_totale",
	}

	// NominalFields are free-text categorical features.
	NominalFields = []string{
		"genre",
		"statut_marital",
		"departement",
		"poste",
		"heure_supplementaires",
		"domaine_etude",
	}

	// OrdinalFields have an implied ordering but are kept as text here.
	OrdinalFields = []string{
		"frequence_deplacement",
	}
)

// FieldID is the mandatory subject identifier.
const FieldID = "id_employee"

// FieldOvertime is the binary yes/no categorical.
const FieldOvertime = "heure_supplementaires"

// FieldSalaryRaise is the percentage-like numeric field with lenient parsing.
const FieldSalaryRaise = "augementation_salaire_precedente"

// Canonical holds one subject's validated feature values. Absent optional
// values are nil pointers; the validator guarantees all invariants documented
// on FromMap.
type Canonical struct {
	IDEmployee int64

	Age                                   *float64
	NombreExperiencesPrecedentes          *float64
	AnneesDansLePosteActuel               *float64
	SatisfactionEmployeeEnvironnement     *float64
	NoteEvaluationPrecedente              *float64
	NiveauHierarchiquePoste               *float64
	SatisfactionEmployeeNatureTravail     *float64
	SatisfactionEmployeeEquipe            *float64
	SatisfactionEmployeeEquilibreProPerso *float64
	NoteEvaluationActuelle                *float64
	AugementationSalairePrecedente        *float64
	NombreParticipationPee                *float64
	NbFormationsSuivies                   *float64
	DistanceDomicileTravail               *float64
	NiveauEducation                       *float64
	AnneesDepuisLaDernierePromotion       *float64
	AnnesSousResponsableActuel            *float64

	// Derivation-only sources for the two log features.
	AnneesDansLEntreprise *float64
	AnneeExperienceTotale *float64

	Genre                *string
	StatutMarital        *string
	Departement          *string
	Poste                *string
	HeureSupplementaires *string
	DomaineEtude         *string

	FrequenceDeplacement *string
}

var knownFields = buildKnownFields()

func buildKnownFields() map[string]struct{} {
	known := map[string]struct{}{FieldID: {}}
	for _, lists := range [][]string{NumericFields, DerivationFields, NominalFields, OrdinalFields} {
		for _, f := range lists {
			known[f] = struct{}{}
		}
	}
	return known
}

// FromMap validates a raw field->value mapping (as decoded from JSON with
// json.Number) and returns the canonical record.
//
// Invariants on success:
//   - no unknown field was present (closed schema)
//   - IDEmployee is a strict positive integer
//   - every numeric field is nil or >= 0
//   - nominal/ordinal fields are nil or trimmed upper-case non-empty strings
//   - the overtime flag is nil, "OUI" or "NON"
func FromMap(raw map[string]any) (*Canonical, error) {
	for k := range raw {
		if _, ok := knownFields[k]; !ok {
			return nil, &FieldError{Field: k, Reason: "unknown field"}
		}
	}

	idRaw, ok := raw[FieldID]
	if !ok {
		return nil, &FieldError{Field: FieldID, Reason: "field is required"}
	}
	id, err := strictInt(idRaw)
	if err != nil {
		return nil, &FieldError{Field: FieldID, Reason: err.Error()}
	}
	if id <= 0 {
		return nil, &FieldError{Field: FieldID, Reason: "must be a positive integer"}
	}

	c := &Canonical{IDEmployee: id}

	for _, f := range append(append([]string{}, NumericFields...), DerivationFields...) {
		v, present := raw[f]
		if !present || v == nil {
			continue
		}
		var num *float64
		if f == FieldSalaryRaise {
			num, err = parsePercent(v)
		} else {
			num, err = parseNumber(v)
		}
		if err != nil {
			return nil, &FieldError{Field: f, Reason: err.Error()}
		}
		if num != nil && *num < 0 {
			return nil, &FieldError{Field: f, Reason: "must not be negative"}
		}
		c.setNumeric(f, num)
	}

	for _, f := range append(append([]string{}, NominalFields...), OrdinalFields...) {
		v, present := raw[f]
		if !present || v == nil {
			continue
		}
		var val *string
		if f == FieldOvertime {
			s, terr := yesNoToken(v)
			if terr == nil {
				val, terr = NormalizeYesNo(s)
			}
			if terr != nil {
				return nil, &FieldError{Field: f, Reason: terr.Error()}
			}
		} else {
			s, ok := v.(string)
			if !ok {
				return nil, &FieldError{Field: f, Reason: "must be a string"}
			}
			val = NormalizeText(s)
		}
		c.setText(f, val)
	}

	return c, nil
}

// NormalizeText trims and upper-cases a free-text categorical value.
// A blank result maps to nil.
func NormalizeText(s string) *string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return nil
	}
	return &s
}

// yesNoToken renders the overtime value as text. The synonym sets include
// tokens that arrive JSON-native as numbers or booleans: 1/true, 0/false.
func yesNoToken(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		return strconv.FormatBool(t), nil
	}
	return "", fmt.Errorf("must be yes or no")
}

// NormalizeYesNo maps recognized yes/no synonyms onto the canonical OUI/NON
// pair. Blank input maps to nil; anything else is rejected.
func NormalizeYesNo(s string) (*string, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	switch v {
	case "":
		return nil, nil
	case "OUI", "YES", "Y", "1", "TRUE":
		oui := "OUI"
		return &oui, nil
	case "NON", "NO", "N", "0", "FALSE":
		non := "NON"
		return &non, nil
	}
	return nil, fmt.Errorf("%q: must be yes or no", s)
}

// strictInt accepts only integral JSON numbers. Floats with a fractional
// part, exponents and numeric strings are all rejected.
func strictInt(v any) (int64, error) {
	n, ok := v.(json.Number)
	if !ok {
		// Support already-typed values from internal callers.
		switch t := v.(type) {
		case int:
			return int64(t), nil
		case int64:
			return t, nil
		}
		return 0, fmt.Errorf("must be an integer")
	}
	s := n.String()
	if strings.ContainsAny(s, ".eE") {
		return 0, fmt.Errorf("must be an integer")
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("must be an integer")
	}
	return i, nil
}

// parseNumber accepts any JSON number (or native float/int from internal
// callers) and returns it as a float.
func parseNumber(v any) (*float64, error) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("must be a number")
		}
		return &f, nil
	case float64:
		f := t
		return &f, nil
	case int:
		f := float64(t)
		return &f, nil
	case int64:
		f := float64(t)
		return &f, nil
	}
	return nil, fmt.Errorf("must be a number")
}

// parsePercent accepts a number, or a string with an optional trailing "%"
// and a comma decimal separator: "5%", " 2,5 % " -> 2.5. Blank maps to nil.
// ParseFloat also accepts "nan" and "inf" spellings; those are not
// percentages and get rejected.
func parsePercent(v any) (*float64, error) {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		s = strings.ReplaceAll(s, "%", "")
		s = strings.ReplaceAll(s, ",", ".")
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("must be a number or a percentage string")
		}
		return &f, nil
	}
	return parseNumber(v)
}

func (c *Canonical) setNumeric(field string, v *float64) {
	switch field {
	case "age":
		c.Age = v
	case "nombre_experiences_precedentes":
		c.NombreExperiencesPrecedentes = v
	case "annees_dans_le_poste_actuel":
		c.AnneesDansLePosteActuel = v
	case "satisfaction_employee_environnement":
		c.SatisfactionEmployeeEnvironnement = v
	case "note_evaluation_precedente":
		c.NoteEvaluationPrecedente = v
	case "niveau_hierarchique_poste":
		c.NiveauHierarchiquePoste = v
	case "satisfaction_employee_nature_travail":
		c.SatisfactionEmployeeNatureTravail = v
	case "satisfaction_employee_equipe":
		c.SatisfactionEmployeeEquipe = v
	case "satisfaction_employee_equilibre_pro_perso":
		c.SatisfactionEmployeeEquilibreProPerso = v
	case "note_evaluation_actuelle":
		c.NoteEvaluationActuelle = v
	case "augementation_salaire_precedente":
		c.AugementationSalairePrecedente = v
	case "nombre_participation_pee":
		c.NombreParticipationPee = v
	case "nb_formations_suivies":
		c.NbFormationsSuivies = v
	case "distance_domicile_travail":
		c.DistanceDomicileTravail = v
	case "niveau_education":
		c.NiveauEducation = v
	case "annees_depuis_la_derniere_promotion":
		c.AnneesDepuisLaDernierePromotion = v
	case "annes_sous_responsable_actuel":
		c.AnnesSousResponsableActuel = v
	case "annees_dans_l_entreprise":
		c.AnneesDansLEntreprise = v
	case "annee_experience_totale":
		c.AnneeExperienceTotale = v
	}
}

func (c *Canonical) setText(field string, v *string) {
	switch field {
	case "genre":
		c.Genre = v
	case "statut_marital":
		c.StatutMarital = v
	case "departement":
		c.Departement = v
	case "poste":
		c.Poste = v
	case "heure_supplementaires":
		c.HeureSupplementaires = v
	case "domaine_etude":
		c.DomaineEtude = v
	case "frequence_deplacement":
		c.FrequenceDeplacement = v
	}
}

// Numeric returns the value of a numeric or derivation field by name.
func (c *Canonical) Numeric(field string) *float64 {
	switch field {
	case "age":
		return c.Age
	case "nombre_experiences_precedentes":
		return c.NombreExperiencesPrecedentes
	case "annees_dans_le_poste_actuel":
		return c.AnneesDansLePosteActuel
	case "satisfaction_employee_environnement":
		return c.SatisfactionEmployeeEnvironnement
	case "note_evaluation_precedente":
		return c.NoteEvaluationPrecedente
	case "niveau_hierarchique_poste":
		return c.NiveauHierarchiquePoste
	case "satisfaction_employee_nature_travail":
		return c.SatisfactionEmployeeNatureTravail
	case "satisfaction_employee_equipe":
		return c.SatisfactionEmployeeEquipe
	case "satisfaction_employee_equilibre_pro_perso":
		return c.SatisfactionEmployeeEquilibreProPerso
	case "note_evaluation_actuelle":
		return c.NoteEvaluationActuelle
	case "augementation_salaire_precedente":
		return c.AugementationSalairePrecedente
	case "nombre_participation_pee":
		return c.NombreParticipationPee
	case "nb_formations_suivies":
		return c.NbFormationsSuivies
	case "distance_domicile_travail":
		return c.DistanceDomicileTravail
	case "niveau_education":
		return c.NiveauEducation
	case "annees_depuis_la_derniere_promotion":
		return c.AnneesDepuisLaDernierePromotion
	case "annes_sous_responsable_actuel":
		return c.AnnesSousResponsableActuel
	case "annees_dans_l_entreprise":
		return c.AnneesDansLEntreprise
	case "annee_experience_totale":
		return c.AnneeExperienceTotale
	}
	return nil
}

// Text returns the value of a nominal or ordinal field by name.
func (c *Canonical) Text(field string) *string {
	switch field {
	case "genre":
		return c.Genre
	case "statut_marital":
		return c.StatutMarital
	case "departement":
		return c.Departement
	case "poste":
		return c.Poste
	case "heure_supplementaires":
		return c.HeureSupplementaires
	case "domaine_etude":
		return c.DomaineEtude
	case "frequence_deplacement":
		return c.FrequenceDeplacement
	}
	return nil
}
