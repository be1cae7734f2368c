package record

// Stored mirrors one row of the read-only employee feature table. The table
// is populated by an external loader and already carries the two derived log
// columns; values appear here exactly as persisted.
type Stored struct {
	IDEmployee         int64
	AQuitteLEntreprise *string

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
	AncienneteLog                         *float64
	AnneeExperienceTotaleLog              *float64

	Genre                *string
	StatutMarital        *string
	Departement          *string
	Poste                *string
	HeureSupplementaires *string
	DomaineEtude         *string
	FrequenceDeplacement *string
}

// Numeric returns the value of a numeric feature column by name.
func (s *Stored) Numeric(field string) *float64 {
	switch field {
	case "age":
		return s.Age
	case "nombre_experiences_precedentes":
		return s.NombreExperiencesPrecedentes
	case "annees_dans_le_poste_actuel":
		return s.AnneesDansLePosteActuel
	case "satisfaction_employee_environnement":
		return s.SatisfactionEmployeeEnvironnement
	case "note_evaluation_precedente":
		return s.NoteEvaluationPrecedente
	case "niveau_hierarchique_poste":
		return s.NiveauHierarchiquePoste
	case "satisfaction_employee_nature_travail":
		return s.SatisfactionEmployeeNatureTravail
	case "satisfaction_employee_equipe":
		return s.SatisfactionEmployeeEquipe
	case "satisfaction_employee_equilibre_pro_perso":
		return s.SatisfactionEmployeeEquilibreProPerso
	case "note_evaluation_actuelle":
		return s.NoteEvaluationActuelle
	case "augementation_salaire_precedente":
		return s.AugementationSalairePrecedente
	case "nombre_participation_pee":
		return s.NombreParticipationPee
	case "nb_formations_suivies":
		return s.NbFormationsSuivies
	case "distance_domicile_travail":
		return s.DistanceDomicileTravail
	case "niveau_education":
		return s.NiveauEducation
	case "annees_depuis_la_derniere_promotion":
		return s.AnneesDepuisLaDernierePromotion
	case "annes_sous_responsable_actuel":
		return s.AnnesSousResponsableActuel
	case "anciennete_log":
		return s.AncienneteLog
	case "annee_experience_totale_log":
		return s.AnneeExperienceTotaleLog
	}
	return nil
}

// Text returns the value of a text feature column by name.
func (s *Stored) Text(field string) *string {
	switch field {
	case "genre":
		return s.Genre
	case "statut_marital":
		return s.StatutMarital
	case "departement":
		return s.Departement
	case "poste":
		return s.Poste
	case "heure_supplementaires":
		return s.HeureSupplementaires
	case "domaine_etude":
		return s.DomaineEtude
	case "frequence_deplacement":
		return s.FrequenceDeplacement
	}
	return nil
}
