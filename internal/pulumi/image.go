package provider

import (
	"fmt"

	awsecr "github.com/pulumi/pulumi-aws/sdk/v6/go/aws/ecr"
	"github.com/pulumi/pulumi-docker-build/sdk/go/dockerbuild"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// imagePlatform matches the task definition's runtime platform.
const imagePlatform = dockerbuild.Platform_Linux_amd64

// buildImage builds the web service and pushes it to repo. The returned
// reference is pinned to the pushed digest, so a new build rolls the service.
func buildImage(ctx *pulumi.Context, name string, s ServiceSpec, repo *awsecr.Repository, opts []pulumi.ResourceOption) (pulumi.StringOutput, error) {
	token := awsecr.GetAuthorizationTokenOutput(ctx, awsecr.GetAuthorizationTokenOutputArgs{
		RegistryId: repo.RegistryId,
	}, pulumi.Parent(repo))

	img, err := dockerbuild.NewImage(ctx, fmt.Sprintf("%s-image", name), &dockerbuild.ImageArgs{
		Context:    &dockerbuild.BuildContextArgs{Location: pulumi.String(absPath(s.BuildContext))},
		Dockerfile: &dockerbuild.DockerfileArgs{Location: pulumi.String(absPath(s.Dockerfile))},
		Platforms:  dockerbuild.PlatformArray{imagePlatform},
		Push:       pulumi.Bool(true),
		Tags:       pulumi.StringArray{pulumi.Sprintf("%s:latest", repo.RepositoryUrl)},
		Registries: dockerbuild.RegistryArray{
			&dockerbuild.RegistryArgs{
				Address:  repo.RepositoryUrl,
				Username: token.UserName(),
				Password: pulumi.ToSecret(token.Password()).(pulumi.StringOutput),
			},
		},
	}, opts...)
	if err != nil {
		return pulumi.StringOutput{}, err
	}
	return img.Ref, nil
}
