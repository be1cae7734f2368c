package model_test

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/futurisys/attrition/internal/domain/features"
	"github.com/futurisys/attrition/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func testArtifact() model.Artifact {
	return model.Artifact{
		Version:   "test",
		Columns:   []string{"age", "genre"},
		Classes:   []int{0, 1},
		Intercept: -1.0,
		Numeric: map[string]model.NumericSpec{
			"age": {Impute: 35, Center: 35, Scale: 10, Coef: 0.5},
		},
		Categorical: map[string]model.CategoricalSpec{
			"genre": {Coef: map[string]float64{"MASCULIN": 0.2, "FEMININ": -0.2}},
		},
	}
}

func writeArtifact(t *testing.T, a model.Artifact) string {
	t.Helper()
	raw, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func sigmoid(z float64) float64 { return 1 / (1 + math.Exp(-z)) }

func TestReadArtifact(t *testing.T) {
	Convey("Given artifact files on disk", t, func() {
		Convey("A valid artifact loads", func() {
			a, err := model.ReadArtifact(writeArtifact(t, testArtifact()))
			So(err, ShouldBeNil)
			So(a.Version, ShouldEqual, "test")
			So(a.Columns, ShouldResemble, []string{"age", "genre"})
		})

		Convey("A missing file reports not found", func() {
			_, err := model.ReadArtifact(filepath.Join(t.TempDir(), "nope.json"))
			So(errors.Is(err, model.ErrModelNotFound), ShouldBeTrue)
		})

		Convey("Malformed JSON reports an invalid model", func() {
			path := filepath.Join(t.TempDir(), "model.json")
			So(os.WriteFile(path, []byte("{not json"), 0o644), ShouldBeNil)
			_, err := model.ReadArtifact(path)
			So(errors.Is(err, model.ErrModelInvalid), ShouldBeTrue)
		})

		Convey("A zero numeric scale is rejected", func() {
			a := testArtifact()
			spec := a.Numeric["age"]
			spec.Scale = 0
			a.Numeric["age"] = spec
			_, err := model.ReadArtifact(writeArtifact(t, a))
			So(errors.Is(err, model.ErrModelInvalid), ShouldBeTrue)
		})

		Convey("A column without a spec is rejected", func() {
			a := testArtifact()
			a.Columns = append(a.Columns, "mystere")
			_, err := model.ReadArtifact(writeArtifact(t, a))
			So(errors.Is(err, model.ErrModelInvalid), ShouldBeTrue)
		})

		Convey("A non-binary class list is rejected", func() {
			a := testArtifact()
			a.Classes = []int{0, 1, 2}
			_, err := model.ReadArtifact(writeArtifact(t, a))
			So(errors.Is(err, model.ErrModelInvalid), ShouldBeTrue)
		})
	})
}

func TestPredictProba(t *testing.T) {
	ctx := context.Background()

	Convey("Given an engine over a known artifact", t, func() {
		e := model.New(model.WithPath(writeArtifact(t, testArtifact())))

		Convey("A full vector scores the fitted logit", func() {
			v := features.Vector{"age": 45.0, "genre": "MASCULIN"}
			p, err := e.PredictProba(ctx, v)
			So(err, ShouldBeNil)
			So(p, ShouldAlmostEqual, sigmoid(-1.0+0.5*((45-35)/10.0)+0.2))
		})

		Convey("Null numerics are imputed", func() {
			p, err := e.PredictProba(ctx, features.Vector{"genre": "FEMININ"})
			So(err, ShouldBeNil)
			So(p, ShouldAlmostEqual, sigmoid(-1.0-0.2))
		})

		Convey("Unseen categories contribute nothing", func() {
			p, err := e.PredictProba(ctx, features.Vector{"genre": "AUTRE"})
			So(err, ShouldBeNil)
			So(p, ShouldAlmostEqual, sigmoid(-1.0))
		})

		Convey("The same vector always scores the same", func() {
			v := features.Vector{"age": 28.0}
			a, err := e.PredictProba(ctx, v)
			So(err, ShouldBeNil)
			b, err := e.PredictProba(ctx, v)
			So(err, ShouldBeNil)
			So(a, ShouldEqual, b)
		})
	})

	Convey("Given an artifact with reversed class order", t, func() {
		a := testArtifact()
		a.Classes = []int{1, 0}
		e := model.New(model.WithPath(writeArtifact(t, a)))

		Convey("The positive probability follows the class order", func() {
			p, err := e.PredictProba(ctx, features.Vector{"genre": "AUTRE"})
			So(err, ShouldBeNil)
			So(p, ShouldAlmostEqual, 1-sigmoid(-1.0))
		})
	})

	Convey("Given an artifact whose classes lack the positive label", t, func() {
		a := testArtifact()
		a.Classes = []int{0, 2}
		e := model.New(model.WithPath(writeArtifact(t, a)))

		Convey("Scoring fails loudly", func() {
			_, err := e.PredictProba(ctx, features.Vector{})
			So(errors.Is(err, model.ErrPositiveClassAbsent), ShouldBeTrue)
		})
	})
}

func TestPredictLabel(t *testing.T) {
	ctx := context.Background()

	engineAt := func(intercept float64) *model.Engine {
		a := testArtifact()
		a.Intercept = intercept
		spec := a.Numeric["age"]
		spec.Coef = 0
		a.Numeric["age"] = spec
		a.Categorical["genre"] = model.CategoricalSpec{Coef: map[string]float64{}}
		return model.New(model.WithPath(writeArtifact(t, a)))
	}

	Convey("Given the calibrated decision threshold", t, func() {
		Convey("A probability around 0.13 is already positive", func() {
			// sigmoid(-1.9) ~ 0.1301, above the operating point and far
			// below 0.5.
			label, err := engineAt(-1.9).PredictLabel(ctx, features.Vector{})
			So(err, ShouldBeNil)
			So(label, ShouldEqual, 1)
		})

		Convey("A probability around 0.12 stays negative", func() {
			// sigmoid(-2.0) ~ 0.1192.
			label, err := engineAt(-2.0).PredictLabel(ctx, features.Vector{})
			So(err, ShouldBeNil)
			So(label, ShouldEqual, 0)
		})

		Convey("A high probability is positive", func() {
			label, err := engineAt(2.0).PredictLabel(ctx, features.Vector{})
			So(err, ShouldBeNil)
			So(label, ShouldEqual, 1)
		})

		Convey("The comparison is inclusive at the operating point", func() {
			So(model.LabelFor(0.125930), ShouldEqual, 1)
			So(model.LabelFor(math.Nextafter(0.125930, 0)), ShouldEqual, 0)
			So(model.LabelFor(0.5), ShouldEqual, 1)
			So(model.LabelFor(0), ShouldEqual, 0)
		})
	})
}

func TestLazyLoad(t *testing.T) {
	ctx := context.Background()

	Convey("Given an engine with no artifact and no fetch URL", t, func() {
		e := model.New(model.WithPath(filepath.Join(t.TempDir(), "model.json")))

		Convey("Prediction reports the missing model", func() {
			_, err := e.PredictProba(ctx, features.Vector{})
			So(errors.Is(err, model.ErrModelNotFound), ShouldBeTrue)
		})
	})

	Convey("Given a remote artifact", t, func() {
		raw, err := json.Marshal(testArtifact())
		So(err, ShouldBeNil)

		var hits atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.Write(raw)
		}))
		defer srv.Close()

		path := filepath.Join(t.TempDir(), "model.json")
		e := model.New(
			model.WithPath(path),
			model.WithFetchURL(srv.URL),
			model.WithHTTPClient(srv.Client()),
		)

		Convey("Concurrent first predictions fetch the artifact once", func() {
			var wg sync.WaitGroup
			errs := make([]error, 10)
			for i := range errs {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_, errs[i] = e.PredictProba(ctx, features.Vector{"genre": "MASCULIN"})
				}(i)
			}
			wg.Wait()

			for _, err := range errs {
				So(err, ShouldBeNil)
			}
			So(hits.Load(), ShouldEqual, 1)
			_, err := os.Stat(path)
			So(err, ShouldBeNil)
		})

		Convey("A failing fetch surfaces as an error", func() {
			bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer bad.Close()

			e := model.New(
				model.WithPath(filepath.Join(t.TempDir(), "model.json")),
				model.WithFetchURL(bad.URL),
			)
			_, err := e.PredictProba(ctx, features.Vector{})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "unexpected status")
		})
	})
}
