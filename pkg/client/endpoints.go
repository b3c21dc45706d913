package client

import (
	"context"
	"fmt"
	"net/url"

	"golang.org/x/sync/errgroup"

	"github.com/systmms/blueconnect/pkg/decode"
	"github.com/systmms/blueconnect/pkg/models"
)

// DefaultLanguage is the feed language used when none is given.
const DefaultLanguage = "en"

// maxDeviceFetches bounds concurrent blue/{serial} requests.
const maxDeviceFetches = 4

// User returns the logged-in account.
func (c *Client) User(ctx context.Context) (models.User, error) {
	return Fetch(ctx, c, "user", models.UserSchema, nil)
}

// SwimmingPools returns every pool of the account.
func (c *Client) SwimmingPools(ctx context.Context) ([]models.SwimmingPool, error) {
	return FetchList(ctx, c, "swimming_pool", models.SwimmingPoolSchema, nil,
		[]interface{}{"data"}, "swimming_pool")
}

// SwimmingPool returns one pool.
func (c *Client) SwimmingPool(ctx context.Context, poolID string) (models.SwimmingPool, error) {
	return Fetch(ctx, c, poolPath(poolID), models.SwimmingPoolSchema, nil)
}

// SwimmingPoolStatus returns the health verdict of a pool.
func (c *Client) SwimmingPoolStatus(ctx context.Context, poolID string) (models.SwimmingPoolStatus, error) {
	return Fetch(ctx, c, poolPath(poolID)+"/status", models.SwimmingPoolStatusSchema, nil)
}

// SwimmingPoolBlueDevices returns the devices attached to a pool. The pool
// endpoint only lists serials, so each device is fetched individually.
// The result keeps the listing order.
func (c *Client) SwimmingPoolBlueDevices(ctx context.Context, poolID string) ([]models.BlueDevice, error) {
	serials, err := c.SwimmingPoolBlueDeviceSerials(ctx, poolID)
	if err != nil {
		return nil, err
	}

	devices := make([]models.BlueDevice, len(serials))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxDeviceFetches)
	for i, serial := range serials {
		i, serial := i, serial
		g.Go(func() error {
			device, err := c.BlueDevice(gctx, serial)
			if err != nil {
				return err
			}
			devices[i] = device
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return devices, nil
}

// SwimmingPoolBlueDeviceSerials returns the serials of the devices attached
// to a pool without fetching the devices themselves.
func (c *Client) SwimmingPoolBlueDeviceSerials(ctx context.Context, poolID string) ([]string, error) {
	path := poolPath(poolID) + "/blue"
	doc, err := c.Get(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	items, err := decode.Items(doc, "data")
	if err != nil {
		recordDecodeError(err)
		return nil, fmt.Errorf("endpoint %s: %w", path, err)
	}

	serials := make([]string, 0, len(items))
	for i, item := range items {
		raw, err := decode.Select(item, "blue_device_serial")
		if err == nil {
			var serial string
			serial, err = decode.String.Coerce(raw, fmt.Sprintf("data[%d].blue_device_serial", i))
			if err == nil {
				serials = append(serials, serial)
				continue
			}
		}
		recordDecodeError(err)
		return nil, fmt.Errorf("endpoint %s item %d: %w", path, i, err)
	}
	return serials, nil
}

// BlueDevice returns one device.
func (c *Client) BlueDevice(ctx context.Context, serial string) (models.BlueDevice, error) {
	return Fetch(ctx, c, "blue/"+url.PathEscape(serial), models.BlueDeviceSchema, nil)
}

// SwimmingPoolFeed returns the localized message feed of a pool. An empty
// language means DefaultLanguage.
func (c *Client) SwimmingPoolFeed(ctx context.Context, poolID, language string) (models.SwimmingPoolFeed, error) {
	if language == "" {
		language = DefaultLanguage
	}
	return Fetch(ctx, c, poolPath(poolID)+"/feed", models.SwimmingPoolFeedSchema, url.Values{"lang": {language}})
}

// LastMeasurements returns the latest readings of a device, combining probe
// and test strip values.
func (c *Client) LastMeasurements(ctx context.Context, poolID, serial string) (models.SwimmingPoolLastMeasurements, error) {
	path := poolPath(poolID) + "/blue/" + url.PathEscape(serial) + "/lastMeasurements"
	return Fetch(ctx, c, path, models.SwimmingPoolLastMeasurementsSchema, url.Values{"mode": {"blue_and_strip"}})
}

func poolPath(poolID string) string {
	return "swimming_pool/" + url.PathEscape(poolID)
}
