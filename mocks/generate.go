package mocks

//go:generate mockgen -destination=./mock_market.go -package=mocks github.com/quantrail/quantrail/internal/market Connection,DataLoader,ExecutionHandler
