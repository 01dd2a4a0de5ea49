package state

import (
	"fmt"
	"time"
)

// Dispatch dispatches the function to run on the main loop without waiting
// for it to complete.
func (e *Env) Dispatch(fun func(*State) error) {
	defer func() {
		if r := recover(); r != nil {
			e.Cancel(fmt.Errorf("panic: %v", r))
		}
	}()
	select {
	case e.DispatchChannel <- fun:
	case <-e.Context.Done():
	}
}

// DispatchWait dispatches the function to run on the main loop and waits for
// its result. The function's error belongs to the waiting caller: command
// rejections travel back on the result channel and are never surfaced to the
// main loop as a dispatch failure.
func (e *Env) DispatchWait(fun func(s *State) (any, error)) (any, error) {
	ret := make(chan Pair[any, error], 1)
	e.Dispatch(func(s *State) error {
		res, err := fun(s)
		ret <- Pair[any, error]{res, err}
		return nil
	})
	select {
	case res := <-ret:
		return res.V1, res.V2
	case <-e.Context.Done():
		return nil, e.Context.Err()
	}
}

// ScheduleTask runs the function on the main loop after the delay.
func (e *Env) ScheduleTask(fun func(*State) error, delay time.Duration) {
	time.AfterFunc(delay, func() {
		e.Dispatch(fun)
	})
}

func (e *Env) repeatedTask(fun func(*State) error, delay time.Duration) {
	for e.Context.Err() == nil {
		e.Dispatch(fun)
		select {
		case <-time.After(delay):
		case <-e.Context.Done():
			return
		}
	}
}

// RepeatTask dispatches the function on the main loop every delay until the
// context is cancelled.
func (e *Env) RepeatTask(fun func(*State) error, delay time.Duration) {
	go e.repeatedTask(fun, delay)
}
