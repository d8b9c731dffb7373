package repository

import "errors"

var ErrVehicleNotFound = errors.New("vehicle not found")
