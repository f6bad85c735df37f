package model

import "time"

type DoorStatus string

const (
	DoorActive   DoorStatus = "active"
	DoorTimedOut DoorStatus = "timed_out"
	DoorExited   DoorStatus = "exited"
)

// DoorSession is one user's sub-session inside one door game. StateBlob is
// serialized by the door itself; the engine and the repository never look
// inside it.
type DoorSession struct {
	UserID      string     `json:"userId" bson:"userId"`
	DoorID      string     `json:"doorId" bson:"doorId"`
	StateBlob   []byte     `json:"stateBlob" bson:"stateBlob"`
	EnteredAt   time.Time  `json:"enteredAt" bson:"enteredAt"`
	LastInputAt time.Time  `json:"lastInputAt" bson:"lastInputAt"`
	Status      DoorStatus `json:"status" bson:"status"`
}
