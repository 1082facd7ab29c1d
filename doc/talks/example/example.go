package main

import (
	"fmt"

	"github.com/joamaki/pushstream/stream"
)

type singleInteger int

// produce is a stream.Producer: it emits the number and completes. There is
// nothing to tear down.
func (num singleInteger) produce(s *stream.Subscriber[int]) stream.Teardown {
	s.Next(int(num))
	s.Complete()
	return nil
}

func main() {
	ten := stream.New[int](singleInteger(10).produce)

	// The 'Map' operator takes a function and returns a function from
	// observable to observable that applies it to each element.
	twenty := ten.Pipe(
		stream.Map(func(x int) int { return x * 2 }),
	)

	twenty.Subscribe(stream.ObserverFuncs[int]{
		NextFunc:     func(x int) { fmt.Printf("%d\n", x) },
		CompleteFunc: func() { fmt.Println("done") },
	})
}
