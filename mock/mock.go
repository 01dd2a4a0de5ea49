package mock

import "github.com/encodeous/packetsim/state"

// DefaultSimCfg is the canned 6-node topology used by tests and the demo
// runner: two triangle-ish clusters bridged at both ends.
//
//	    1 --- 3
//	   /|     |\
//	  0 |     | 5
//	   \|     |/
//	    2 --- 4
func DefaultSimCfg() state.SimCfg {
	return state.SimCfg{
		Nodes: []state.NodeCfg{
			{Id: 0, X: 150, Y: 200},
			{Id: 1, X: 400, Y: 100},
			{Id: 2, X: 400, Y: 300},
			{Id: 3, X: 650, Y: 100},
			{Id: 4, X: 650, Y: 300},
			{Id: 5, X: 900, Y: 200},
		},
		Graph: []string{
			"0, 1",
			"0, 2",
			"1, 3",
			"2, 4",
			"3, 5",
			"4, 5",
			"1, 2",
			"3, 4",
		},
	}
}
