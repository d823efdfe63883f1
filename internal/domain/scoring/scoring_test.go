package scoring_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/athleteprofile/internal/domain/aggregate"
	"github.com/okian/athleteprofile/internal/domain/metricset"
	scoring "github.com/okian/athleteprofile/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestTSAScorer_Score(t *testing.T) {
	Convey("Given the default TSA scorer", t, func() {
		scorer := scoring.NewTSAScorer()
		So(scorer.Validate(), ShouldBeNil)

		Convey("When every sheet component is present", func() {
			input := scoring.Input{
				Athlete: "Jordan Reyes",
				Session: "2025-02-01",
				Values: aggregate.Vector{
					"Jump Momentum Scaled":                  60,
					"mRSI Scaled":                           70,
					"Peak Relative Propulsive Power Scaled": 80,
					"Jump Height Scaled":                    90,
				},
			}

			Convey("Then Total Strength still uses its stand-in of 55", func() {
				result, err := scorer.Score(context.Background(), input)
				So(err, ShouldBeNil)
				So(result.Score, ShouldAlmostEqual, (60+70+80+55+90)/5.0, 1e-9)
				So(result.Approximate, ShouldBeTrue)
				So(result.Components[3].Label, ShouldEqual, "Total Strength")
				So(result.Components[3].Placeholder, ShouldBeTrue)
				So(result.Components[0].Placeholder, ShouldBeFalse)
				So(result.Athlete, ShouldEqual, "Jordan Reyes")
			})
		})

		Convey("When a sheet component is missing", func() {
			input := scoring.Input{Values: aggregate.Vector{
				"Jump Momentum Scaled": 60,
				"mRSI Scaled":          70,
			}}

			Convey("Then it participates with the default stand-in of 50", func() {
				result, err := scorer.Score(context.Background(), input)
				So(err, ShouldBeNil)
				So(result.Score, ShouldAlmostEqual, (60+70+50+55+50)/5.0, 1e-9)
				So(result.Components[4].Placeholder, ShouldBeTrue)
			})
		})

		Convey("When context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel() // Cancel immediately

			Convey("Then it should return context error", func() {
				result, err := scorer.Score(ctx, scoring.Input{})
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(result.Score, ShouldEqual, 0.0)
			})
		})

		Convey("Then it reads four columns", func() {
			So(len(scorer.Keys()), ShouldEqual, 4)
			So(scorer.Name(), ShouldEqual, "Total Score Athleticism (TSA)")
		})
	})
}

func TestTSAScorer_Options(t *testing.T) {
	Convey("Given a scorer with custom options", t, func() {
		components := []metricset.Metric{
			{Key: "a", Label: "A"},
			{Key: "b", Label: "B"},
		}

		Convey("When setting weights", func() {
			scorer := scoring.NewTSAScorer(
				scoring.WithName("Power Index"),
				scoring.WithComponents(components),
				scoring.WithWeights([]float64{3, 1}),
			)

			Convey("Then the weighted mean is used", func() {
				result, err := scorer.Score(context.Background(), scoring.Input{Values: aggregate.Vector{"a": 80, "b": 40}})
				So(err, ShouldBeNil)
				So(result.Score, ShouldEqual, 70.0)
				So(result.Name, ShouldEqual, "Power Index")
				So(result.Approximate, ShouldBeFalse)
			})
		})

		Convey("When weights do not match the components", func() {
			scorer := scoring.NewTSAScorer(
				scoring.WithComponents(components),
				scoring.WithWeights([]float64{1, 1, 1}),
			)

			Convey("Then validation and scoring report a config error", func() {
				So(errors.Is(scorer.Validate(), aggregate.ErrConfig), ShouldBeTrue)
				_, err := scorer.Score(context.Background(), scoring.Input{})
				So(errors.Is(err, aggregate.ErrConfig), ShouldBeTrue)
			})
		})

		Convey("When setting a custom placeholder", func() {
			scorer := scoring.NewTSAScorer(
				scoring.WithComponents(components),
				scoring.WithPlaceholder(20),
			)

			Convey("Then missing components use it", func() {
				result, err := scorer.Score(context.Background(), scoring.Input{Values: aggregate.Vector{"a": 60}})
				So(err, ShouldBeNil)
				So(result.Score, ShouldEqual, 40.0)
			})
		})

		Convey("When sub-scores exceed the scale", func() {
			scorer := scoring.NewTSAScorer(scoring.WithComponents(components))

			Convey("Then the score is their mean, not capped", func() {
				values := aggregate.Vector{"a": 150, "b": 130}
				result, err := scorer.Score(context.Background(), scoring.Input{Values: values})
				So(err, ShouldBeNil)
				So(result.Score, ShouldEqual, 140.0)

				want, err := aggregate.CompositeScore([]float64{150, 130}, nil)
				So(err, ShouldBeNil)
				So(result.Score, ShouldEqual, want)
			})
		})
	})
}
