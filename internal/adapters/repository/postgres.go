package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v4"

	"github.com/futurisys/attrition/internal/domain/record"
)

// PostgresLogStore persists audit rows in the logging schema.
type PostgresLogStore struct {
	db     DB
	schema string
}

var _ LogStore = (*PostgresLogStore)(nil)

// NewLogStore creates a LogStore over db.
func NewLogStore(db DB, opts ...LogOption) *PostgresLogStore {
	s := &PostgresLogStore{
		db:     db,
		schema: defaultLogSchema,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SavePrediction upserts one audit row keyed by employee id when present.
// Runs as a short transaction: begin, read-or-write, commit.
func (s *PostgresLogStore) SavePrediction(ctx context.Context, entry PredictionLog) (PredictionLog, error) {
	entry.Payload = sanitizeMap(entry.Payload)
	entry.Output = sanitizeMap(entry.Output)

	payload, err := json.Marshal(entry.Payload)
	if err != nil {
		return PredictionLog{}, fmt.Errorf("%w: encode payload: %v", ErrPersistence, err)
	}
	output, err := json.Marshal(entry.Output)
	if err != nil {
		return PredictionLog{}, fmt.Errorf("%w: encode output: %v", ErrPersistence, err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return PredictionLog{}, fmt.Errorf("%w: begin: %v", ErrPersistence, err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // no-op after commit

	saved, err := s.savePredictionTx(ctx, tx, entry, payload, output)
	if err != nil {
		return PredictionLog{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return PredictionLog{}, fmt.Errorf("%w: commit: %v", ErrPersistence, err)
	}
	return saved, nil
}

func (s *PostgresLogStore) savePredictionTx(ctx context.Context, tx Tx, entry PredictionLog, payload, output []byte) (PredictionLog, error) {
	if entry.EmployeeID != nil {
		// Latest row wins when historical duplicates exist.
		var id int64
		err := tx.QueryRow(ctx,
			fmt.Sprintf(`SELECT id FROM %s.prediction_log WHERE employee_id = $1 ORDER BY id DESC LIMIT 1`, s.schema),
			*entry.EmployeeID,
		).Scan(&id)
		switch {
		case err == nil:
			return s.updatePrediction(ctx, tx, id, entry, payload, output)
		case errors.Is(err, pgx.ErrNoRows):
			// fall through to insert
		default:
			return PredictionLog{}, fmt.Errorf("%w: lookup: %v", ErrPersistence, err)
		}
	}

	saved, err := s.insertPrediction(ctx, tx, entry, payload, output)
	if err == nil {
		return saved, nil
	}

	// A concurrent request may have inserted the subject's row between the
	// lookup and the insert; the unique index reports that, and the losing
	// writer degrades to an update.
	if entry.EmployeeID != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			var id int64
			if lerr := tx.QueryRow(ctx,
				fmt.Sprintf(`SELECT id FROM %s.prediction_log WHERE employee_id = $1 ORDER BY id DESC LIMIT 1`, s.schema),
				*entry.EmployeeID,
			).Scan(&id); lerr != nil {
				return PredictionLog{}, fmt.Errorf("%w: lookup after conflict: %v", ErrPersistence, lerr)
			}
			return s.updatePrediction(ctx, tx, id, entry, payload, output)
		}
	}
	return PredictionLog{}, fmt.Errorf("%w: insert: %v", ErrPersistence, err)
}

func (s *PostgresLogStore) insertPrediction(ctx context.Context, tx Tx, entry PredictionLog, payload, output []byte) (PredictionLog, error) {
	err := tx.QueryRow(ctx,
		fmt.Sprintf(`INSERT INTO %s.prediction_log
			(endpoint, requested_by, employee_id, latency_ms, status, payload, output)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, created_at`, s.schema),
		entry.Endpoint, entry.RequestedBy, entry.EmployeeID, entry.LatencyMS, entry.Status, payload, output,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		// Returned raw so the caller can inspect the pg error code.
		return PredictionLog{}, err
	}
	return entry, nil
}

func (s *PostgresLogStore) updatePrediction(ctx context.Context, tx Tx, id int64, entry PredictionLog, payload, output []byte) (PredictionLog, error) {
	err := tx.QueryRow(ctx,
		fmt.Sprintf(`UPDATE %s.prediction_log
			SET endpoint = $2, requested_by = $3, latency_ms = $4, status = $5, payload = $6, output = $7
			WHERE id = $1
			RETURNING created_at`, s.schema),
		id, entry.Endpoint, entry.RequestedBy, entry.LatencyMS, entry.Status, payload, output,
	).Scan(&entry.CreatedAt)
	if err != nil {
		return PredictionLog{}, fmt.Errorf("%w: update: %v", ErrPersistence, err)
	}
	entry.ID = id
	return entry, nil
}

// LatestPrediction returns the newest audit row for employeeID.
func (s *PostgresLogStore) LatestPrediction(ctx context.Context, employeeID int64) (PredictionLog, error) {
	var (
		row     PredictionLog
		payload []byte
		output  []byte
	)
	err := s.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT id, created_at, endpoint, requested_by, employee_id, latency_ms, status, payload, output
			FROM %s.prediction_log WHERE employee_id = $1 ORDER BY id DESC LIMIT 1`, s.schema),
		employeeID,
	).Scan(&row.ID, &row.CreatedAt, &row.Endpoint, &row.RequestedBy, &row.EmployeeID, &row.LatencyMS, &row.Status, &payload, &output)
	if errors.Is(err, pgx.ErrNoRows) {
		return PredictionLog{}, fmt.Errorf("%w: no prediction log for employee %d", ErrNotFound, employeeID)
	}
	if err != nil {
		return PredictionLog{}, fmt.Errorf("query prediction log: %w", err)
	}
	if err := json.Unmarshal(payload, &row.Payload); err != nil {
		return PredictionLog{}, fmt.Errorf("decode payload: %w", err)
	}
	if err := json.Unmarshal(output, &row.Output); err != nil {
		return PredictionLog{}, fmt.Errorf("decode output: %w", err)
	}
	return row, nil
}

// SaveError appends one row to the error log.
func (s *PostgresLogStore) SaveError(ctx context.Context, entry ErrorLog) (ErrorLog, error) {
	contextJSON, err := json.Marshal(sanitizeMap(entry.Context))
	if err != nil {
		return ErrorLog{}, fmt.Errorf("%w: encode context: %v", ErrPersistence, err)
	}
	err = s.db.QueryRow(ctx,
		fmt.Sprintf(`INSERT INTO %s.error_log (endpoint, http_status, error_class, error_message, context)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at`, s.schema),
		entry.Endpoint, entry.HTTPStatus, entry.ErrorClass, entry.ErrorMessage, contextJSON,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return ErrorLog{}, fmt.Errorf("%w: insert error log: %v", ErrPersistence, err)
	}
	return entry, nil
}

// PostgresFeatureStore reads the pre-loaded employee feature table.
type PostgresFeatureStore struct {
	db     DB
	schema string
}

var _ FeatureStore = (*PostgresFeatureStore)(nil)

// NewFeatureStore creates a FeatureStore over db.
func NewFeatureStore(db DB, opts ...FeatureOption) *PostgresFeatureStore {
	s := &PostgresFeatureStore{
		db:     db,
		schema: defaultMartSchema,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetEmployee returns the feature row for id. Numeric columns are cast to
// float8 so integer-typed columns scan uniformly.
func (s *PostgresFeatureStore) GetEmployee(ctx context.Context, id int64) (*record.Stored, error) {
	var row record.Stored
	err := s.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT id_employee, a_quitte_l_entreprise,
			age::float8, nombre_experiences_precedentes::float8, annees_dans_le_poste_actuel::float8,
			satisfaction_employee_environnement::float8, note_evaluation_precedente::float8,
			niveau_hierarchique_poste::float8, satisfaction_employee_nature_travail::float8,
			satisfaction_employee_equipe::float8, satisfaction_employee_equilibre_pro_perso::float8,
			note_evaluation_actuelle::float8, augementation_salaire_precedente::float8,
			nombre_participation_pee::float8, nb_formations_suivies::float8,
			distance_domicile_travail::float8, niveau_education::float8,
			annees_depuis_la_derniere_promotion::float8, annes_sous_responsable_actuel::float8,
			anciennete_log::float8, annee_experience_totale_log::float8,
			genre, statut_marital, departement, poste, heure_supplementaires, domaine_etude, frequence_deplacement
			FROM %s.employee_features WHERE id_employee = $1`, s.schema),
		id,
	).Scan(
		&row.IDEmployee, &row.AQuitteLEntreprise,
		&row.Age, &row.NombreExperiencesPrecedentes, &row.AnneesDansLePosteActuel,
		&row.SatisfactionEmployeeEnvironnement, &row.NoteEvaluationPrecedente,
		&row.NiveauHierarchiquePoste, &row.SatisfactionEmployeeNatureTravail,
		&row.SatisfactionEmployeeEquipe, &row.SatisfactionEmployeeEquilibreProPerso,
		&row.NoteEvaluationActuelle, &row.AugementationSalairePrecedente,
		&row.NombreParticipationPee, &row.NbFormationsSuivies,
		&row.DistanceDomicileTravail, &row.NiveauEducation,
		&row.AnneesDepuisLaDernierePromotion, &row.AnnesSousResponsableActuel,
		&row.AncienneteLog, &row.AnneeExperienceTotaleLog,
		&row.Genre, &row.StatutMarital, &row.Departement, &row.Poste,
		&row.HeureSupplementaires, &row.DomaineEtude, &row.FrequenceDeplacement,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: no features for employee %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query employee features: %w", err)
	}
	return &row, nil
}
