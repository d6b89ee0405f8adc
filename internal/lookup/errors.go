package lookup

import "errors"

const noAPIClientMessageConstant = "interface and zone lookups require a management API client"

var errNoAPIClient = errors.New(noAPIClientMessageConstant)
