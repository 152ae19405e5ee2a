package mocks

//go:generate mockgen -destination boost.go -package mocks github.com/freqkit/freqkit/boost PolicySink,StuneBooster
//go:generate mockgen -destination dmacache.go -package mocks github.com/freqkit/freqkit/dmacache DMA
