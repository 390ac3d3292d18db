package core

import "errors"

var (
	ErrProjectNotFound      = errors.New("project not found")
	ErrWorkerNotFound       = errors.New("worker not found")
	ErrVehicleNotFound      = errors.New("vehicle not found")
	ErrAssignmentNotFound   = errors.New("assignment not found")
	ErrDateOrder            = errors.New("start date must be on or before end date")
	ErrAssignmentTarget     = errors.New("assignment needs a worker or a vehicle")
	ErrTeamLeaderRequired   = errors.New("subcontractor requires a team leader")
	ErrTeamLeaderInvalid    = errors.New("team leader must be a worker of type team_leader")
	ErrTeamLeaderNotAllowed = errors.New("only subcontractors have a team leader")
)
