package sampler

import "errors"

var (
	ErrListProcesses   = errors.New("list processes")
	ErrEncodeSnapshot  = errors.New("encode snapshot")
	ErrPersistSnapshot = errors.New("persist snapshot")
)
