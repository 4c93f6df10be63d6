package bridge

import (
	"context"

	"github.com/danmuck/httpebble/internal/appmessage"
	"github.com/danmuck/httpebble/internal/providers"
)

func (r *Router) location(_ context.Context, code appmessage.Tuple, params Params) (*appmessage.Dictionary, error) {
	d, err := providers.Location(r.cfg.Location, code, len(params))
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Router) hostTime(_ context.Context, code appmessage.Tuple, params Params) (*appmessage.Dictionary, error) {
	d, err := providers.Time(r.clock, code, len(params))
	if err != nil {
		return nil, err
	}
	return &d, nil
}
