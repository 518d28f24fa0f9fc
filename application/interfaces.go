package application

import (
	"prizedraw/domain/entities"
	"prizedraw/domain/services"
)

// LotterySource is the part of the registry the workers need
type LotterySource interface {
	Get(id entities.LotteryID) (*services.LotteryEngine, error)
	List() []*services.LotteryEngine
}
