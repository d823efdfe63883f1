package table_test

import (
	"errors"
	"testing"

	"github.com/okian/athleteprofile/internal/domain/table"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleTable() *table.Table {
	return table.New(
		[]string{"Name", "Date", "Jump Height Scaled", "Test Type"},
		[]table.Record{
			{Athlete: "Cole", Date: "2025-01-07", Values: map[string]float64{"Jump Height Scaled": 61}, Attrs: map[string]string{"Test Type": "CMJ"}},
			{Athlete: "Avery", Date: "2025-01-07", Values: map[string]float64{"Jump Height Scaled": 48}, Attrs: map[string]string{"Test Type": "CMJ"}},
			{Athlete: "Cole", Date: "2025-01-14", Values: map[string]float64{}, Attrs: map[string]string{"Test Type": "ISO"}},
			{Athlete: "Cole", Date: "2025-01-14", Values: map[string]float64{"Jump Height Scaled": 70}},
		},
	)
}

func TestTable_Lookups(t *testing.T) {
	Convey("Given a table with repeated athletes and dates", t, func() {
		tbl := sampleTable()

		Convey("Then Len and RowAt follow source order", func() {
			So(tbl.Len(), ShouldEqual, 4)
			r, err := tbl.RowAt(1)
			So(err, ShouldBeNil)
			So(r.Athlete, ShouldEqual, "Avery")
		})

		Convey("And RowAt outside the table reports the index", func() {
			_, err := tbl.RowAt(4)
			So(errors.Is(err, table.ErrIndexOutOfRange), ShouldBeTrue)
			_, err = tbl.RowAt(-1)
			So(err, ShouldNotBeNil)
		})

		Convey("And Unique keeps first-seen order and skips blanks", func() {
			So(tbl.Unique("Name"), ShouldResemble, []string{"Cole", "Avery"})
			So(tbl.Unique("Date"), ShouldResemble, []string{"2025-01-07", "2025-01-14"})
			So(tbl.Unique("Test Type"), ShouldResemble, []string{"CMJ", "ISO"})
			So(tbl.Unique("Jump Height Scaled"), ShouldResemble, []string{"61", "48", "70"})
		})

		Convey("And Athletes is sorted", func() {
			So(tbl.Athletes(), ShouldResemble, []string{"Avery", "Cole"})
		})

		Convey("And Sessions lists only the athlete's dates", func() {
			So(tbl.Sessions("Cole"), ShouldResemble, []string{"2025-01-07", "2025-01-14"})
			So(tbl.Sessions("Avery"), ShouldResemble, []string{"2025-01-07"})
			So(tbl.Sessions("Nobody"), ShouldBeEmpty)
		})

		Convey("And Filter returns a new table without touching the source", func() {
			cmj := tbl.Filter(func(r table.Record) bool { return r.Attr("Test Type") == "CMJ" })
			So(cmj.Len(), ShouldEqual, 2)
			So(tbl.Len(), ShouldEqual, 4)
			So(cmj.Has("Jump Height Scaled"), ShouldBeTrue)
		})

		Convey("And Value distinguishes absent from zero", func() {
			r, _ := tbl.RowAt(2)
			_, ok := r.Value("Jump Height Scaled")
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given a nil table", t, func() {
		var tbl *table.Table

		Convey("Then reads are empty rather than panicking", func() {
			So(tbl.Len(), ShouldEqual, 0)
			So(tbl.Records(), ShouldBeNil)
			So(tbl.Has("Name"), ShouldBeFalse)
			So(tbl.Filter(func(table.Record) bool { return true }).Len(), ShouldEqual, 0)
			So(tbl.Athletes(), ShouldBeEmpty)
		})
	})
}
