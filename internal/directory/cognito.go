package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/aws/smithy-go"
)

type CognitoConfig struct {
	UserPoolID string
	Group      string
	Region     string
}

type CognitoAPI interface {
	ListUsersInGroup(ctx context.Context, in *cip.ListUsersInGroupInput, optFns ...func(*cip.Options)) (*cip.ListUsersInGroupOutput, error)
}

// Cognito lists the members of one user pool group. A member's id is its "sub"
// attribute, which is also the subject of the tokens the pool issues.
type Cognito struct {
	client CognitoAPI
	cfg    CognitoConfig
}

func NewCognito(client CognitoAPI, cfg CognitoConfig) *Cognito {
	return &Cognito{client: client, cfg: cfg}
}

// NewCognitoFromEnv builds the client from the default AWS credential chain.
func NewCognitoFromEnv(ctx context.Context, cfg CognitoConfig) (*Cognito, error) {
	if cfg.UserPoolID == "" || cfg.Group == "" {
		return nil, fmt.Errorf("%w: user pool id and group are required", ErrMisconfigured)
	}
	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewCognito(cip.NewFromConfig(awsCfg), cfg), nil
}

func (c *Cognito) ListTechnicians(ctx context.Context) ([]Profile, error) {
	var (
		out   []Profile
		token *string
	)
	for {
		page, err := c.client.ListUsersInGroup(ctx, &cip.ListUsersInGroupInput{
			UserPoolId: aws.String(c.cfg.UserPoolID),
			GroupName:  aws.String(c.cfg.Group),
			NextToken:  token,
		})
		if err != nil {
			return nil, mapCognitoError(err)
		}
		for _, u := range page.Users {
			if !u.Enabled {
				continue
			}
			out = append(out, profileFromUser(u))
		}
		if aws.ToString(page.NextToken) == "" {
			return out, nil
		}
		token = page.NextToken
	}
}

func profileFromUser(u types.UserType) Profile {
	attrs := make(map[string]string, len(u.Attributes))
	for _, a := range u.Attributes {
		attrs[aws.ToString(a.Name)] = aws.ToString(a.Value)
	}

	p := Profile{
		ID:        attrs["sub"],
		Email:     attrs["email"],
		AvatarURL: attrs["picture"],
	}
	if p.ID == "" {
		p.ID = aws.ToString(u.Username)
	}
	for _, key := range []string{"name", "preferred_username"} {
		if v := attrs[key]; v != "" {
			p.DisplayName = v
			break
		}
	}
	if p.DisplayName == "" {
		p.DisplayName = aws.ToString(u.Username)
	}
	return p
}

func mapCognitoError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ResourceNotFoundException", "InvalidParameterException":
			return fmt.Errorf("%w: %s", ErrMisconfigured, apiErr.ErrorMessage())
		case "NotAuthorizedException", "TooManyRequestsException", "InternalErrorException":
			return fmt.Errorf("%w: %s", ErrUnavailable, apiErr.ErrorCode())
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
