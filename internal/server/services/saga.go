package services

// registrationState is a step of the registration saga.
//
//	start → localRecordCreated → profileCreated → tokenIssued → done
//	                    ↘ profileCreationFailed → compensating → failed
type registrationState int

const (
	stateStart registrationState = iota
	stateLocalRecordCreated
	stateProfileCreated
	stateTokenIssued
	stateDone
	stateProfileCreationFailed
	stateCompensating
	stateFailed
)

func (s registrationState) String() string {
	switch s {
	case stateStart:
		return "start"
	case stateLocalRecordCreated:
		return "local_record_created"
	case stateProfileCreated:
		return "profile_created"
	case stateTokenIssued:
		return "token_issued"
	case stateDone:
		return "done"
	case stateProfileCreationFailed:
		return "profile_creation_failed"
	case stateCompensating:
		return "compensating"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s registrationState) terminal() bool {
	return s == stateDone || s == stateFailed
}
