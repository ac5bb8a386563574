package s3client

import (
	"fmt"
	"net"
	"strings"
)

// ValidateBucketName checks a name against the S3 bucket naming rules
func ValidateBucketName(name string) error {
	if len(name) < 3 || len(name) > 63 {
		return fmt.Errorf("%w: %q must be between 3 and 63 characters", ErrInvalidBucketName, name)
	}
	if !isAlphaNum(name[0]) || !isAlphaNum(name[len(name)-1]) {
		return fmt.Errorf("%w: %q must start and end with a letter or number", ErrInvalidBucketName, name)
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !isAlphaNum(c) && c != '-' && c != '.' {
			return fmt.Errorf("%w: %q may only contain lowercase letters, numbers, dots and hyphens", ErrInvalidBucketName, name)
		}
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q must not contain consecutive dots", ErrInvalidBucketName, name)
	}
	if net.ParseIP(name) != nil {
		return fmt.Errorf("%w: %q must not be formatted as an IP address", ErrInvalidBucketName, name)
	}
	return nil
}

// isDNSCompatible reports whether the bucket can be addressed virtual-host style
func isDNSCompatible(name string) bool {
	return ValidateBucketName(name) == nil && !strings.Contains(name, ".")
}

func isAlphaNum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
