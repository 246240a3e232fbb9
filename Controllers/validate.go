package Controllers

import "github.com/go-playground/validator/v10"

// validate is shared by every controller in the package.
var validate = validator.New()
