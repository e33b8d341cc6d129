package partition_test

import (
	"testing"

	"github.com/okian/teamdraw/internal/domain/partition"
	. "github.com/smartystreets/goconvey/convey"
)

// permutations returns every single-member-team partition of names.
func permutations(names []string) []partition.Partition {
	if len(names) <= 1 {
		return []partition.Partition{partition.Split(names, len(names))}
	}
	var out []partition.Partition
	for i := range names {
		rest := make([]string, 0, len(names)-1)
		rest = append(rest, names[:i]...)
		rest = append(rest, names[i+1:]...)
		for _, tail := range permutations(rest) {
			p := partition.Partition{{names[i]}}
			out = append(out, append(p, tail...))
		}
	}
	return out
}

func TestEngineGenerate(t *testing.T) {
	Convey("Given an engine", t, func() {
		Convey("When created with defaults", func() {
			e := partition.NewEngine()

			Convey("Then it allows 50 attempts", func() {
				So(e.MaxAttempts(), ShouldEqual, partition.DefaultMaxAttempts)
				So(partition.DefaultMaxAttempts, ShouldEqual, 50)
			})
		})

		Convey("When the history is empty", func() {
			e := partition.NewEngine(partition.WithRNG(seeded(1)))
			res, err := e.Generate([]string{"Ana", "Bob", "Carla", "Diego"}, 2, nil)

			Convey("Then the first candidate is accepted", func() {
				So(err, ShouldBeNil)
				So(res.Attempts, ShouldEqual, 1)
				So(res.Exhausted, ShouldBeFalse)
				So(res.Partition.Sizes(), ShouldResemble, []int{2, 2})
			})
		})

		Convey("When every possible partition is already in history", func() {
			names := []string{"A", "B", "C"}
			history := permutations(names)
			So(len(history), ShouldEqual, 6)

			rejected := 0
			e := partition.NewEngine(
				partition.WithRNG(seeded(2)),
				partition.WithRejectHook(func(partition.Partition) { rejected++ }),
			)
			res, err := e.Generate(names, 3, history)

			Convey("Then it gives up after 50 attempts and still returns a candidate", func() {
				So(err, ShouldBeNil)
				So(res.Exhausted, ShouldBeTrue)
				So(res.Attempts, ShouldEqual, 50)
				So(rejected, ShouldEqual, 50)
				So(res.Partition, ShouldNotBeNil)
				So(len(res.Partition), ShouldEqual, 3)
				So(sorted(res.Partition.Members()), ShouldResemble, names)
			})
		})

		Convey("When all but one partition is in history", func() {
			names := []string{"A", "B", "C"}
			all := permutations(names)
			free := all[4]
			history := append(append([]partition.Partition{}, all[:4]...), all[5])

			e := partition.NewEngine(partition.WithRNG(seeded(5)), partition.WithMaxAttempts(1000))
			res, err := e.Generate(names, 3, history)

			Convey("Then it finds the remaining one", func() {
				So(err, ShouldBeNil)
				So(res.Exhausted, ShouldBeFalse)
				So(res.Partition, ShouldResemble, free)
			})
		})

		Convey("When a custom budget is set", func() {
			names := []string{"A", "B"}
			e := partition.NewEngine(partition.WithRNG(seeded(9)), partition.WithMaxAttempts(3))
			res, err := e.Generate(names, 2, permutations(names))

			Convey("Then exhaustion happens after that many attempts", func() {
				So(err, ShouldBeNil)
				So(res.Exhausted, ShouldBeTrue)
				So(res.Attempts, ShouldEqual, 3)
			})
		})

		Convey("When the team count is invalid", func() {
			_, err := partition.NewEngine().Generate([]string{"A"}, 0, nil)

			Convey("Then the error is returned", func() {
				So(err, ShouldEqual, partition.ErrInvalidTeamCount)
			})
		})

		Convey("When the history is only read", func() {
			history := []partition.Partition{{{"A"}, {"B"}}}
			before := history[0].Clone()
			_, _ = partition.NewEngine(partition.WithRNG(seeded(4))).Generate([]string{"A", "B"}, 2, history)

			Convey("Then it is left unchanged", func() {
				So(history, ShouldHaveLength, 1)
				So(history[0], ShouldResemble, before)
			})
		})
	})
}
